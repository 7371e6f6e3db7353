package tts

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns a fake hosted URL with plausible timing.
	SynthesizeFunc func(ctx context.Context, req *SpeechRequest) (*SpeechResult, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	// CloseFunc is called when Close is invoked.
	// If nil, returns nil.
	CloseFunc func() error

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// NewMock creates a new mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
			if req == nil || req.Text == "" {
				return nil, WrapError("mock", ErrEmptyText)
			}
			// Rough narration pacing: ~15 characters per second.
			return &SpeechResult{
				AudioURL:       fmt.Sprintf("https://audio.example.com/%d.mp3", len(req.Text)),
				AudioLengthSec: float64(len(req.Text)) / 15.0,
				CharCount:      len(req.Text),
				LatencyMs:      10,
			}, nil
		},
		HealthFunc: func(ctx context.Context) error {
			return nil
		},
	}
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *Mock) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
	text := ""
	if req != nil {
		text = req.Text
	}
	m.recordCall("Synthesize", text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, req)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.recordCall("Health", "")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.recordCall("Close", "")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// recordCall adds a call to the tracking list.
func (m *Mock) recordCall(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Text:   text,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, req *SpeechRequest) (*SpeechResult, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)

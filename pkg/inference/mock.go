package inference

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, echoes a canned response.
	GenerateFunc func(ctx context.Context, req *Request) (*Response, error)

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
	Prompt string
	Time   time.Time
}

// NewMock creates a new mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		GenerateFunc: func(ctx context.Context, req *Request) (*Response, error) {
			if req == nil || req.Prompt == "" {
				return nil, WrapError("mock", ErrEmptyPrompt)
			}
			return &Response{
				Text:         "Once upon a time, a curious child asked a wonderful question. The end.",
				FinishReason: "stop",
				Model:        "mock",
				LatencyMs:    5,
			}, nil
		},
		HealthFunc: func(ctx context.Context) error {
			return nil
		},
	}
}

// WithText returns a mock that always generates the given text.
func WithText(text string) *Mock {
	m := NewMock()
	m.GenerateFunc = func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{Text: text, FinishReason: "stop", Model: "mock"}, nil
	}
	return m
}

// WithError returns a mock that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{
		GenerateFunc: func(ctx context.Context, req *Request) (*Response, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// Generate calls GenerateFunc and records the call.
func (m *Mock) Generate(ctx context.Context, req *Request) (*Response, error) {
	prompt := ""
	if req != nil {
		prompt = req.Prompt
	}
	m.recordCall("Generate", prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
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
func (m *Mock) recordCall(method, prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Prompt: prompt,
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

// LastPrompt returns the prompt of the most recent Generate call.
func (m *Mock) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Method == "Generate" {
			return m.calls[i].Prompt
		}
	}
	return ""
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)

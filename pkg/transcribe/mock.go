package transcribe

import (
	"context"
	"io"
	"sync"
)

// Mock implements Transcriber for testing.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, returns a canned transcript.
	TranscribeFunc func(ctx context.Context, audio io.Reader, filename string) (*Transcript, error)

	mu    sync.Mutex
	calls int
}

// NewMock creates a mock transcriber with a canned result.
func NewMock() *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, audio io.Reader, filename string) (*Transcript, error) {
			if audio == nil {
				return nil, WrapError("mock", ErrNoAudio)
			}
			return &Transcript{Text: "tell me a story about dragons"}, nil
		},
	}
}

// WithFallback returns a mock that signals browser-side degradation.
func WithFallback() *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, audio io.Reader, filename string) (*Transcript, error) {
			return &Transcript{Fallback: true}, nil
		},
	}
}

// WithError returns a mock that always fails.
func WithError(err error) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, audio io.Reader, filename string) (*Transcript, error) {
			return nil, err
		},
	}
}

// Transcribe calls TranscribeFunc and counts the call.
func (m *Mock) Transcribe(ctx context.Context, audio io.Reader, filename string) (*Transcript, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.TranscribeFunc(ctx, audio, filename)
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// CallCount returns how many times Transcribe was called.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Verify Mock implements Transcriber at compile time.
var _ Transcriber = (*Mock)(nil)

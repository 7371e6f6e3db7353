package hub

import (
	"sync"
	"testing"
	"time"
)

func TestRunAndStopLifecycle(t *testing.T) {
	h := New()
	if h.IsRunning() {
		t.Fatal("new hub reports running")
	}

	go h.Run()
	waitFor(t, func() bool { return h.IsRunning() })

	h.Stop()
	waitFor(t, func() bool { return !h.IsRunning() })
}

func TestStopIsIdempotent(t *testing.T) {
	h := New()
	go h.Run()
	waitFor(t, func() bool { return h.IsRunning() })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Stop()
		}()
	}
	wg.Wait()
	h.Stop()
	waitFor(t, func() bool { return !h.IsRunning() })
}

func TestPublishNeverBlocks(t *testing.T) {
	h := New() // no Run loop draining the queue

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if err := h.Publish(NewEvent(KindActivity, map[string]string{"mode": "story"})); err != nil {
				t.Errorf("Publish: %v", err)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestPublishRejectsUnencodableData(t *testing.T) {
	h := New()
	if err := h.Publish(NewEvent(KindSession, make(chan int))); err == nil {
		t.Error("Publish accepted an unencodable payload")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

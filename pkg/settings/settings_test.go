package settings_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/murfkiddo/murfkiddo/pkg/settings"
)

func TestMemoryDefaults(t *testing.T) {
	store := settings.NewMemory(0)

	s := store.Settings()
	if s.DailyLimitMinutes != 60 {
		t.Errorf("expected 60 minute default, got %d", s.DailyLimitMinutes)
	}
	if s.ContentFilter != "strict" {
		t.Errorf("expected strict default, got %q", s.ContentFilter)
	}
}

func TestReplaceSettings(t *testing.T) {
	store := settings.NewMemory(0)

	t.Run("valid replace", func(t *testing.T) {
		err := store.ReplaceSettings(settings.Settings{
			DailyLimitMinutes: 30,
			ContentFilter:     "moderate",
			AllowedModes:      []string{"story", "bedtime"},
			BedtimeHour:       20,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := store.Settings()
		if s.DailyLimitMinutes != 30 || s.BedtimeHour != 20 {
			t.Errorf("settings not replaced: %+v", s)
		}
	})

	t.Run("invalid limit rejected", func(t *testing.T) {
		err := store.ReplaceSettings(settings.Settings{DailyLimitMinutes: -1})
		if !errors.Is(err, settings.ErrInvalidSettings) {
			t.Errorf("expected ErrInvalidSettings, got %v", err)
		}
	})

	t.Run("invalid filter rejected", func(t *testing.T) {
		err := store.ReplaceSettings(settings.Settings{ContentFilter: "anything-goes"})
		if !errors.Is(err, settings.ErrInvalidSettings) {
			t.Errorf("expected ErrInvalidSettings, got %v", err)
		}
	})

	t.Run("rejected update does not apply", func(t *testing.T) {
		s := store.Settings()
		if s.ContentFilter != "moderate" {
			t.Errorf("settings mutated by rejected update: %+v", s)
		}
	})
}

func TestActivityFeed(t *testing.T) {
	store := settings.NewMemory(3)

	for i := 0; i < 5; i++ {
		store.AppendActivity("story", fmt.Sprintf("story %d", i))
	}

	feed := store.Activities()
	if len(feed) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(feed))
	}
	if feed[0].Summary != "story 4" {
		t.Errorf("expected newest first, got %q", feed[0].Summary)
	}
	if feed[2].Summary != "story 2" {
		t.Errorf("expected oldest kept entry last, got %q", feed[2].Summary)
	}
	for _, a := range feed {
		if a.ID == "" {
			t.Error("activity missing ID")
		}
		if a.Time.IsZero() {
			t.Error("activity missing timestamp")
		}
	}
}

func TestActivitySnapshotIsolated(t *testing.T) {
	store := settings.NewMemory(0)
	store.AppendActivity("chat", "hello")

	feed := store.Activities()
	feed[0].Summary = "mutated"

	if store.Activities()[0].Summary != "hello" {
		t.Error("snapshot mutation leaked into store")
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := settings.NewMemory(10)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.AppendActivity("play", "riddle")
		}()
		go func() {
			defer wg.Done()
			_ = store.Activities()
			_ = store.Settings()
		}()
	}
	wg.Wait()

	if got := len(store.Activities()); got != 10 {
		t.Errorf("expected feed capped at 10, got %d", got)
	}
}

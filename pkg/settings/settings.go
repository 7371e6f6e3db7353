// Package settings holds parental settings and the recent-activity feed.
//
// The store is deliberately demo-grade: in-memory, last-writer-wins, a
// capped activity list, and nothing survives a restart. It sits behind
// an interface so handlers and tests can inject an isolated store, and
// so a durable implementation could replace it without touching callers.
// It is not safe for multi-instance deployment.
package settings

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidSettings is returned when a settings update is out of range.
var ErrInvalidSettings = errors.New("settings: invalid value")

// Settings are the parental controls for the app.
type Settings struct {
	// DailyLimitMinutes caps tracked usage per day. Zero means no limit.
	DailyLimitMinutes int `json:"dailyLimitMinutes"`

	// ContentFilter is strict, moderate, or relaxed.
	ContentFilter string `json:"contentFilter"`

	// AllowedModes lists the enabled modes; empty means all.
	AllowedModes []string `json:"allowedModes"`

	// BedtimeHour switches the app to bedtime-only after this hour
	// (0-23). Zero disables the switch.
	BedtimeHour int `json:"bedtimeHour"`
}

// DefaultSettings returns the out-of-the-box parental settings.
func DefaultSettings() Settings {
	return Settings{
		DailyLimitMinutes: 60,
		ContentFilter:     "strict",
	}
}

// Validate checks ranges on a settings update.
func (s Settings) Validate() error {
	if s.DailyLimitMinutes < 0 || s.DailyLimitMinutes > 24*60 {
		return fmt.Errorf("%w: dailyLimitMinutes %d", ErrInvalidSettings, s.DailyLimitMinutes)
	}
	if s.BedtimeHour < 0 || s.BedtimeHour > 23 {
		return fmt.Errorf("%w: bedtimeHour %d", ErrInvalidSettings, s.BedtimeHour)
	}
	switch s.ContentFilter {
	case "", "strict", "moderate", "relaxed":
	default:
		return fmt.Errorf("%w: contentFilter %q", ErrInvalidSettings, s.ContentFilter)
	}
	return nil
}

// Activity is one entry of the recent-activity feed shown to parents.
type Activity struct {
	ID      string    `json:"id"`
	Mode    string    `json:"mode"`
	Summary string    `json:"summary"`
	Time    time.Time `json:"time"`
}

// Store is the injected settings/activity interface.
type Store interface {
	// Settings returns a snapshot of the current settings.
	Settings() Settings

	// ReplaceSettings swaps the settings wholesale after validation.
	ReplaceSettings(s Settings) error

	// AppendActivity records one activity entry, newest first,
	// truncating at the store's cap.
	AppendActivity(mode, summary string) Activity

	// Activities returns a snapshot of the feed, newest first.
	Activities() []Activity
}

// DefaultActivityCap bounds the activity feed length.
const DefaultActivityCap = 50

// Memory is the in-memory Store implementation.
type Memory struct {
	mu         sync.RWMutex
	settings   Settings
	activities []Activity
	cap        int
}

// NewMemory creates an in-memory store with the given activity cap.
// A non-positive cap uses DefaultActivityCap.
func NewMemory(activityCap int) *Memory {
	if activityCap <= 0 {
		activityCap = DefaultActivityCap
	}
	return &Memory{
		settings: DefaultSettings(),
		cap:      activityCap,
	}
}

// Settings returns a snapshot of the current settings.
func (m *Memory) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.settings
	s.AllowedModes = append([]string(nil), m.settings.AllowedModes...)
	return s
}

// ReplaceSettings swaps the settings wholesale. Last writer wins.
func (m *Memory) ReplaceSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

// AppendActivity records one entry, newest first, truncating at the cap.
func (m *Memory) AppendActivity(mode, summary string) Activity {
	entry := Activity{
		ID:      uuid.NewString(),
		Mode:    mode,
		Summary: summary,
		Time:    time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append([]Activity{entry}, m.activities...)
	if len(m.activities) > m.cap {
		m.activities = m.activities[:m.cap]
	}
	return entry
}

// Activities returns a snapshot of the feed, newest first.
func (m *Memory) Activities() []Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Activity, len(m.activities))
	copy(out, m.activities)
	return out
}

// Verify Memory implements Store at compile time.
var _ Store = (*Memory)(nil)

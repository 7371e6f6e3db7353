// Package session models the voice-capture conversation flow as an
// explicit finite-state machine.
//
// The browser's speech recognition callbacks (onstart, onresult,
// onerror, onend) arrive as events; the machine owns the listening
// countdown, the automatic-restart budget, and the forced switch to
// typed input when listening keeps coming up empty. Keeping the flow in
// a transition table makes the restart limit and fallback trigger
// testable instead of living in a tangle of booleans.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// State names one phase of a conversation turn.
type State string

const (
	// StateGreeting is the idle state before any capture.
	StateGreeting State = "greeting"

	// StateListening means voice capture is active with a countdown.
	StateListening State = "listening"

	// StateProcessing means a turn is in flight to the server.
	StateProcessing State = "processing"

	// StateReady means a response arrived and is playing or displayed.
	StateReady State = "ready"

	// StateErrored means capture or the server failed; the UI offers a
	// retry and a switch to typed input.
	StateErrored State = "errored"
)

// transitions is the allowed-move table. Every state change goes
// through it; an event that would move outside the table is a bug in
// the caller and is rejected.
var transitions = map[State][]State{
	StateGreeting:   {StateListening},
	StateListening:  {StateListening, StateProcessing, StateErrored, StateGreeting},
	StateProcessing: {StateReady, StateErrored},
	StateReady:      {StateListening, StateGreeting},
	StateErrored:    {StateListening, StateGreeting},
}

// ErrBadTransition is returned for an event that is not legal in the
// current state.
var ErrBadTransition = errors.New("session: event not valid in current state")

// Config tunes one capture session.
type Config struct {
	// ListenWindow bounds one listening attempt. Values are clamped to
	// the 15-20 second range the capture UI supports.
	ListenWindow time.Duration

	// MaxRestarts is how many times an empty listening window restarts
	// automatically before the machine forces the typed-input fallback.
	MaxRestarts int

	// OnTransition, when set, is called after every state change with
	// the machine already unlocked. Used for the activity websocket.
	OnTransition func(from, to State, cause string)

	// OnSubmit, when set, receives the captured transcript when
	// listening hands off to processing.
	OnSubmit func(transcript string)
}

// DefaultConfig returns the standard capture tuning.
func DefaultConfig() Config {
	return Config{
		ListenWindow: 15 * time.Second,
		MaxRestarts:  2,
	}
}

// Clamp keeps the listening window and restart budget inside the
// supported ranges.
func (c *Config) Clamp() {
	if c.ListenWindow < 15*time.Second {
		c.ListenWindow = 15 * time.Second
	}
	if c.ListenWindow > 20*time.Second {
		c.ListenWindow = 20 * time.Second
	}
	if c.MaxRestarts <= 0 {
		c.MaxRestarts = 2
	}
}

// Machine is one conversation turn's state machine. Safe for use from
// the event callbacks of a single capture session.
type Machine struct {
	cfg Config

	mu           sync.Mutex
	state        State
	interim      string
	restarts     int
	textFallback bool

	// newTimer is swappable so tests can fire the countdown directly.
	newTimer func(d time.Duration, f func()) *time.Timer
	timer    *time.Timer
}

// New creates a machine in the greeting state.
func New(cfg Config) *Machine {
	cfg.Clamp()
	return &Machine{
		cfg:      cfg,
		state:    StateGreeting,
		newTimer: time.AfterFunc,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// TextFallback reports whether the machine has given up on voice
// capture and forced typed input.
func (m *Machine) TextFallback() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.textFallback
}

// Restarts returns how many automatic listening restarts have happened
// this turn.
func (m *Machine) Restarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restarts
}

// Start begins voice capture: greeting (or ready/errored retry) to
// listening, with a fresh countdown.
func (m *Machine) Start() error {
	m.mu.Lock()
	if err := m.checkMove(StateListening); err != nil {
		m.mu.Unlock()
		return err
	}
	from := m.state
	m.state = StateListening
	m.interim = ""
	m.restarts = 0
	m.armCountdown()
	m.mu.Unlock()

	m.notify(from, StateListening, "start")
	return nil
}

// SpeechInterim records a partial recognition result while listening.
func (m *Machine) SpeechInterim(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateListening {
		m.interim = text
	}
}

// SpeechResult receives a final recognition result and submits it:
// listening to processing.
func (m *Machine) SpeechResult(text string) error {
	m.mu.Lock()
	if m.state != StateListening {
		m.mu.Unlock()
		return fmt.Errorf("%w: speech result in %s", ErrBadTransition, m.state)
	}
	m.stopCountdown()
	m.state = StateProcessing
	m.interim = ""
	m.mu.Unlock()

	m.notify(StateListening, StateProcessing, "speech result")
	if m.cfg.OnSubmit != nil {
		m.cfg.OnSubmit(strings.TrimSpace(text))
	}
	return nil
}

// SpeechError receives a recognition failure: listening to errored,
// where the UI offers retry and the typing fallback.
func (m *Machine) SpeechError() error {
	m.mu.Lock()
	if m.state != StateListening {
		m.mu.Unlock()
		return fmt.Errorf("%w: speech error in %s", ErrBadTransition, m.state)
	}
	m.stopCountdown()
	m.state = StateErrored
	m.mu.Unlock()

	m.notify(StateListening, StateErrored, "speech error")
	return nil
}

// CountdownExpired handles the listening window running out. A
// non-empty interim transcript is submitted; an empty one restarts
// listening until the restart budget runs out, then forces the typed
// fallback.
func (m *Machine) CountdownExpired() {
	m.mu.Lock()
	if m.state != StateListening {
		m.mu.Unlock()
		return
	}

	if strings.TrimSpace(m.interim) != "" {
		text := m.interim
		m.state = StateProcessing
		m.interim = ""
		m.mu.Unlock()

		m.notify(StateListening, StateProcessing, "countdown submit")
		if m.cfg.OnSubmit != nil {
			m.cfg.OnSubmit(strings.TrimSpace(text))
		}
		return
	}

	if m.restarts >= m.cfg.MaxRestarts {
		m.state = StateErrored
		m.textFallback = true
		m.mu.Unlock()

		m.notify(StateListening, StateErrored, "listening gave up")
		return
	}

	m.restarts++
	m.armCountdown()
	m.mu.Unlock()

	m.notify(StateListening, StateListening, "listening restarted")
}

// ServerResponded completes the turn: processing to ready.
func (m *Machine) ServerResponded() error {
	return m.move(StateProcessing, StateReady, "server responded")
}

// ServerFailed fails the turn: processing to errored.
func (m *Machine) ServerFailed() error {
	return m.move(StateProcessing, StateErrored, "server failed")
}

// Retry returns from errored to listening, keeping backed-off voice
// capture available unless the fallback was forced.
func (m *Machine) Retry() error {
	m.mu.Lock()
	if m.state != StateErrored {
		m.mu.Unlock()
		return fmt.Errorf("%w: retry in %s", ErrBadTransition, m.state)
	}
	m.state = StateListening
	m.interim = ""
	m.armCountdown()
	m.mu.Unlock()

	m.notify(StateErrored, StateListening, "retry")
	return nil
}

// Reset returns the machine to greeting from any state and clears the
// per-turn counters.
func (m *Machine) Reset() {
	m.mu.Lock()
	from := m.state
	m.stopCountdown()
	m.state = StateGreeting
	m.interim = ""
	m.restarts = 0
	m.textFallback = false
	m.mu.Unlock()

	if from != StateGreeting {
		m.notify(from, StateGreeting, "reset")
	}
}

// move performs a simple table-checked transition.
func (m *Machine) move(from, to State, cause string) error {
	m.mu.Lock()
	if m.state != from {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s while in %s", ErrBadTransition, from, to, m.state)
	}
	if err := m.checkMove(to); err != nil {
		m.mu.Unlock()
		return err
	}
	m.stopCountdown()
	m.state = to
	m.mu.Unlock()

	m.notify(from, to, cause)
	return nil
}

// checkMove validates a target state against the transition table.
// Caller holds the lock.
func (m *Machine) checkMove(to State) error {
	for _, allowed := range transitions[m.state] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrBadTransition, m.state, to)
}

// armCountdown (re)starts the listening timer. Caller holds the lock.
func (m *Machine) armCountdown() {
	m.stopCountdown()
	m.timer = m.newTimer(m.cfg.ListenWindow, m.CountdownExpired)
}

// stopCountdown cancels any pending timer. Caller holds the lock.
func (m *Machine) stopCountdown() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// notify fires the transition callback outside the lock.
func (m *Machine) notify(from, to State, cause string) {
	if m.cfg.OnTransition != nil {
		m.cfg.OnTransition(from, to, cause)
	}
}

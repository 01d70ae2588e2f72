package stream

import (
	"sync"

	"github.com/google/uuid"
)

// Activity is the injected focus signal: whether the surface owning the
// streams (terminal tab, TUI window) is currently active. Streams are closed
// while inactive and reopened on the active edge.
type Activity interface {
	// Active reports the current state.
	Active() bool
	// Subscribe returns a channel receiving the state after each transition
	// and a cancel function releasing the subscription.
	Subscribe() (<-chan bool, func())
}

type alwaysActive struct{}

func (alwaysActive) Active() bool { return true }

func (alwaysActive) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool)
	return ch, func() {}
}

// AlwaysActive returns an [Activity] that never reports inactive. One-shot
// CLI commands use it; visibility gating only matters for long-lived views.
func AlwaysActive() Activity { return alwaysActive{} }

// Signal is a push-driven [Activity] implementation. The TUI feeds it from
// focus/blur events; tests drive it directly.
type Signal struct {
	mu     sync.Mutex
	active bool
	subs   map[string]chan bool
}

// NewSignal creates a Signal with the given initial state.
func NewSignal(active bool) *Signal {
	return &Signal{active: active, subs: make(map[string]chan bool)}
}

// Active reports the current state.
func (s *Signal) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Set updates the state and notifies subscribers on change.
func (s *Signal) Set(active bool) {
	s.mu.Lock()
	if s.active == active {
		s.mu.Unlock()
		return
	}
	s.active = active
	subs := make([]chan bool, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- active:
		default:
			// Subscriber is behind; it reads Active() when it catches up.
		}
	}
}

// Subscribe registers a listener for state transitions.
func (s *Signal) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan bool, 8)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

package stream

import "sync"

// State enumerates the lifecycle of one logical stream connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateErrored
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateErrored:
		return "errored"
	case StateTimedOut:
		return "timed_out"
	default:
		return ""
	}
}

// transitions lists the legal forward edges. Idle is reachable from every
// state (unsubscribe, disable, and focus-loss always win) and is therefore
// not listed.
var transitions = map[State][]State{
	StateIdle:       {StateConnecting},
	StateConnecting: {StateOpen, StateErrored, StateTimedOut},
	StateOpen:       {StateErrored, StateTimedOut},
}

// Machine tracks the connection lifecycle shared by the progress store and
// the per-list watcher, for diagnostics and log context. It rejects illegal
// transitions but does not serialize connects; each consumer holds its own
// mutex across the nil-connection check and the dial, and that lock is what
// keeps coinciding triggers from double-opening.
type Machine struct {
	mu    sync.Mutex
	state State
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// To attempts the transition and reports whether it was legal. Transitions to
// Idle always succeed.
func (m *Machine) To(next State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if next == StateIdle {
		m.state = StateIdle
		return true
	}
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			return true
		}
	}
	return false
}

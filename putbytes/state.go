package putbytes

import "fmt"

// State is the position of a Session in the transfer handshake.
type State uint32

const (
	// StateIdle is the initial state; nothing has been sent.
	StateIdle State = iota
	// StatePrepared means the device accepted the init request and issued a cookie.
	StatePrepared
	// StateSending means chunks are being put.
	StateSending
	// StateCommitted means every chunk was acknowledged and the checksum accepted.
	StateCommitted
	// StateInstalled means the device installed the object. Terminal.
	StateInstalled
	// StateFailed means a phase failed. Terminal.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePrepared:
		return "prepared"
	case StateSending:
		return "sending"
	case StateCommitted:
		return "committed"
	case StateInstalled:
		return "installed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible from s.
func (s State) IsTerminal() bool {
	return s == StateInstalled || s == StateFailed
}

// next holds the single forward successor of each non-terminal state.
var next = map[State]State{
	StateIdle:      StatePrepared,
	StatePrepared:  StateSending,
	StateSending:   StateCommitted,
	StateCommitted: StateInstalled,
}

// canTransition reports whether from -> to is an edge of the state machine.
// Every non-terminal state may move to StateFailed.
func canTransition(from, to State) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateFailed {
		return true
	}

	succ, ok := next[from]

	return ok && succ == to
}

// StateChangeHandler is invoked synchronously after every state transition of a
// Session. It must not call back into the session.
type StateChangeHandler func(prevState State, newState State)

func invalidTransition(op string, want, got State) error {
	return fmt.Errorf("%w: %s requires state %s, session is %s", ErrInvalidTransition, op, want, got)
}

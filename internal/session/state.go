package session

import (
	"errors"
	"fmt"
)

// State is the phase a session is in.
type State int

const (
	Idle State = iota
	ChoosingHand
	AwaitingOpponent
	Cooldown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ChoosingHand:
		return "choosing_hand"
	case AwaitingOpponent:
		return "awaiting_opponent"
	case Cooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event names the presentation-layer operations.
type Event string

const (
	EventStart           Event = "start"
	EventSubmit          Event = "submit"
	EventExit            Event = "exit"
	EventToggleMode      Event = "toggle_mode"
	EventRefreshRankings Event = "refresh_rankings"
)

var (
	// ErrIllegalTransition is matched by every *TransitionError.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrInvalidPlayer is returned by Start for a blank player name.
	ErrInvalidPlayer = errors.New("player name is required")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session closed")
)

// TransitionError reports an event that the current state does not accept.
type TransitionError struct {
	From  State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition: %s not allowed in state %s", e.Event, e.From)
}

// Is makes errors.Is(err, ErrIllegalTransition) true
func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// accepts is the transition table for the externally triggered events.
// Evaluation results and cooldown expiry are internal and not listed.
var accepts = map[State][]Event{
	Idle:             {EventStart, EventToggleMode, EventRefreshRankings},
	ChoosingHand:     {EventSubmit, EventExit},
	AwaitingOpponent: {},
	Cooldown:         {},
}

// Accepts reports whether state s accepts event e
func (s State) Accepts(e Event) bool {
	for _, allowed := range accepts[s] {
		if allowed == e {
			return true
		}
	}
	return false
}

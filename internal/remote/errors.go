package remote

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every *Error, whatever its kind.
var ErrUnavailable = errors.New("remote service unavailable")

// ErrorKind categorizes remote failures.
type ErrorKind int

const (
	// Transport covers connection failures, timeouts and cancelled requests.
	Transport ErrorKind = iota
	// Status means the service answered with a non-2xx status code.
	Status
	// Payload means the body could not be decoded or held invalid values.
	Payload
)

func (k ErrorKind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Status:
		return "status"
	case Payload:
		return "payload"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails.
type Error struct {
	Kind       ErrorKind
	Op         string // "play" or "ranking"
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == Status:
		return fmt.Sprintf("remote %s: unexpected status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("remote %s: %s error: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("remote %s: %s error", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnavailable) match any remote failure
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}

// KindOf returns the kind of a remote error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

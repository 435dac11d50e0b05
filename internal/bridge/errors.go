package bridge

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a connection or session failed.
type Kind int

const (
	// KindRouting rejects one connection before any byte is relayed.
	KindRouting Kind = iota + 1
	// KindTransport ends one session: dial, read, write or frame send failure.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindRouting:
		return "routing"
	case KindTransport:
		return "transport"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrUnknownTarget = errors.New("unknown target")
)

// Error carries the failing operation with the session it belongs to.
type Error struct {
	Kind   Kind
	Op     string
	Target string
	Peer   string
	Err    error
}

func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s [%s] %s: %v", e.Kind, e.Op, e.Target, e.Peer, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Op, e.Peer, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func transportError(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: errors.WithStack(err)}
}

// withSession fills in target and peer on errors raised inside a pump.
func withSession(err error, targetName, peer string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Target, e.Peer = targetName, peer
	}
	return err
}

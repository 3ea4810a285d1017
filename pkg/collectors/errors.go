package collectors

import (
	"errors"
	"fmt"
)

// ErrorKind classifies monitor failures.
type ErrorKind int

const (
	// KindIO is a failed read of a system file.
	KindIO ErrorKind = iota + 1
	// KindCommand is an external command that could not run or exited
	// non-zero.
	KindCommand
	// KindParse is malformed data from a file or command.
	KindParse
	// KindSubscription is an event stream that could not be opened or ended.
	KindSubscription
	// KindChannelClosed is normal termination of a stream.
	KindChannelClosed
)

// Sentinels for errors.Is checks against a MonitorError's kind.
var (
	ErrIO            = errors.New("io error")
	ErrCommand       = errors.New("command failed")
	ErrParse         = errors.New("parse error")
	ErrSubscription  = errors.New("subscription failed")
	ErrChannelClosed = errors.New("channel closed")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindIO:
		return ErrIO
	case KindCommand:
		return ErrCommand
	case KindParse:
		return ErrParse
	case KindSubscription:
		return ErrSubscription
	case KindChannelClosed:
		return ErrChannelClosed
	}
	return nil
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// MonitorError is the error type returned by monitors. Op names the failed
// operation (a file path or a command line).
type MonitorError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *MonitorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *MonitorError) Unwrap() error { return e.Err }

// Is matches the sentinel for e's kind, so errors.Is(err, ErrParse) works on
// wrapped monitor errors.
func (e *MonitorError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// NewError builds a MonitorError.
func NewError(kind ErrorKind, op string, err error) *MonitorError {
	return &MonitorError{Kind: kind, Op: op, Err: err}
}

// Errorf builds a MonitorError whose cause is a formatted message.
func Errorf(kind ErrorKind, op, format string, args ...any) *MonitorError {
	return &MonitorError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first MonitorError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var me *MonitorError
	if errors.As(err, &me) {
		return me.Kind
	}
	return 0
}

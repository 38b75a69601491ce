package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindWorkspace covers clone, checkout and build failures.
	KindWorkspace
	// KindProcess covers server and benchmark client failures.
	KindProcess
	// KindParse covers malformed benchmark or baseline payloads.
	KindParse
	// KindIO covers local file reads and writes.
	KindIO
	// KindNetwork covers pushes and review-system notifications.
	KindNetwork
	// KindCleanup covers teardown of the workspace and the server.
	// It is the only non-fatal kind.
	KindCleanup
)

func (k Kind) String() string {
	switch k {
	case KindWorkspace:
		return "workspace"
	case KindProcess:
		return "process"
	case KindParse:
		return "parse"
	case KindIO:
		return "io"
	case KindNetwork:
		return "network"
	case KindCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind with an empty Op,
// which lets callers match on kind alone: errors.Is(err, ErrParse).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrWorkspace = &Error{Kind: KindWorkspace}
	ErrProcess   = &Error{Kind: KindProcess}
	ErrParse     = &Error{Kind: KindParse}
	ErrIO        = &Error{Kind: KindIO}
	ErrNetwork   = &Error{Kind: KindNetwork}
	ErrCleanup   = &Error{Kind: KindCleanup}
)

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Workspace wraps err as a workspace failure.
func Workspace(op string, err error) error { return newError(KindWorkspace, op, err) }

// Process wraps err as a process failure.
func Process(op string, err error) error { return newError(KindProcess, op, err) }

// Parse wraps err as a parse failure.
func Parse(op string, err error) error { return newError(KindParse, op, err) }

// IO wraps err as a local I/O failure.
func IO(op string, err error) error { return newError(KindIO, op, err) }

// Network wraps err as a remote failure.
func Network(op string, err error) error { return newError(KindNetwork, op, err) }

// Cleanup wraps err as a teardown failure.
func Cleanup(op string, err error) error { return newError(KindCleanup, op, err) }

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err must abort the run. Unclassified errors are fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) != KindCleanup
}

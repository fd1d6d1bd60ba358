package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/wellcheck/internal/logger"
)

// Kind classifies failures so callers can pick a user-facing message.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation means a caller-supplied field was out of range.
	KindValidation
	// KindConflict means an entry already exists for the same user and day.
	KindConflict
	// KindIO covers unreadable/unwritable files and lock timeouts.
	KindIO
	// KindCorruptData is recovered at load time and only ever logged.
	KindCorruptData
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindConflict:
		return "CONFLICT"
	case KindIO:
		return "IO_ERROR"
	case KindCorruptData:
		return "CORRUPT_DATA"
	default:
		return "UNKNOWN"
	}
}

// Sentinels for errors.Is checks against a Kind.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrIO          = &Error{Kind: KindIO}
	ErrCorruptData = &Error{Kind: KindCorruptData}
)

// Error is a typed failure carrying the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrConflict) works
// regardless of Op and wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation wraps a formatted validation failure.
func Validation(op, format string, args ...interface{}) error {
	return New(KindValidation, op, fmt.Errorf(format, args...))
}

// Conflict wraps a formatted duplicate-key failure.
func Conflict(op, format string, args ...interface{}) error {
	return New(KindConflict, op, fmt.Errorf(format, args...))
}

// IO wraps an I/O cause.
func IO(op string, err error) error {
	return New(KindIO, op, err)
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err, "kind", KindOf(err))
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}

// Package errs defines the error taxonomy used throughout the recovery
// engine. Every kind named here is a value, not a panic: nothing in this
// module aborts a scan because of malformed on-disk data. Only a failure to
// open the source at all is treated as fatal.
package errs

import "fmt"

// Kind identifies which taxonomy entry an error belongs to, so callers can
// switch on it without string matching.
type Kind int

const (
	// SourceOpenError means the device or image could not be opened at all.
	// Fatal for the scan.
	SourceOpenError Kind = iota
	// PermissionError means the source could not be opened because of
	// insufficient privileges. Fatal for the scan.
	PermissionError
	// ReadError means a mid-scan I/O read failed. The current chunk is
	// truncated to whatever was read; the scan continues.
	ReadError
	// FilesystemParseError means a prober could not parse an on-disk
	// structure. Never fatal: the orchestrator falls back to brute-force.
	FilesystemParseError
	// CarveRejected means a magic pattern matched but the validator failed.
	CarveRejected
	// RepairFailed means a repair action produced no improvement.
	RepairFailed
	// SaveError means a recovered file could not be written or verified.
	// Per-file; does not abort the remaining saves.
	SaveError
	// AdapterTimeout means the external deleted-entry adapter exceeded its
	// wall-clock budget. Partial results are kept.
	AdapterTimeout
	// Cancelled distinguishes a user-requested stop from a true error.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case SourceOpenError:
		return "SourceOpenError"
	case PermissionError:
		return "PermissionError"
	case ReadError:
		return "ReadError"
	case FilesystemParseError:
		return "FilesystemParseError"
	case CarveRejected:
		return "CarveRejected"
	case RepairFailed:
		return "RepairFailed"
	case SaveError:
		return "SaveError"
	case AdapterTimeout:
		return "AdapterTimeout"
	case Cancelled:
		return "Cancelled"
	default:
		return "UnknownError"
	}
}

// Error is the taxonomy error type: a small value type that can be
// enriched with a message or wrap an underlying cause without losing
// its Kind.
type Error struct {
	kind          Kind
	message       string
	originalError error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Error() string {
	if e.originalError != nil {
		return fmt.Sprintf("%s: %s: %s", e.kind, e.message, e.originalError.Error())
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// WithMessage returns a copy of the error with an additional message
// appended, preserving the original cause.
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		kind:          e.kind,
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e.originalError,
	}
}

// WrapError returns a copy of the error that wraps an underlying cause.
func (e *Error) WrapError(err error) *Error {
	return &Error{
		kind:          e.kind,
		message:       e.message,
		originalError: err,
	}
}

func (e *Error) Unwrap() error {
	return e.originalError
}

// Is allows errors.Is(err, errs.ReadError) style checks by comparing kinds
// when the target is itself an *Error.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == other.kind
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if cast, ok := err.(*Error); ok {
			e = cast
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	if e == nil {
		return 0, false
	}
	return e.kind, true
}

func NewSourceOpenError(message string, cause error) *Error {
	return New(SourceOpenError, message).WrapError(cause)
}

func NewPermissionError(message string) *Error {
	return New(PermissionError, message+"; try running with elevated privileges")
}

func NewReadError(message string, cause error) *Error {
	return New(ReadError, message).WrapError(cause)
}

func NewFilesystemParseError(message string, cause error) *Error {
	return New(FilesystemParseError, message).WrapError(cause)
}

func NewCarveRejected(reason string) *Error {
	return New(CarveRejected, reason)
}

func NewRepairFailed(reason string) *Error {
	return New(RepairFailed, reason)
}

func NewSaveError(message string, cause error) *Error {
	return New(SaveError, message).WrapError(cause)
}

func NewAdapterTimeout(after string) *Error {
	return Newf(AdapterTimeout, "deleted-entry adapter exceeded its %s budget", after)
}

func NewCancelled() *Error {
	return New(Cancelled, "scan cancelled by caller")
}

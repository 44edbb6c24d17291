package converter

import (
	"errors"
	"fmt"
)

// ErrorKind classifies conversion failures.
type ErrorKind int

const (
	// ProbeFailed means the source could not be probed or has zero duration.
	ProbeFailed ErrorKind = iota
	// EncodeFailed means an encoder pass failed.
	EncodeFailed
	// TooLong means no acceptable bitrate can fit the file under the
	// ceiling; the caller must split the source.
	TooLong
	// CannotFit means the replanned output still overran the ceiling.
	CannotFit
)

func (k ErrorKind) String() string {
	switch k {
	case ProbeFailed:
		return "probe_failed"
	case EncodeFailed:
		return "encode_failed"
	case TooLong:
		return "too_long"
	case CannotFit:
		return "cannot_fit"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the engine.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversion %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("conversion %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from err, reporting ok=false when err is
// not a conversion error.
func KindOf(err error) (ErrorKind, bool) {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind, true
	}
	return 0, false
}

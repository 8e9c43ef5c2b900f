package se3

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failure modes of the SE(3) pipeline.
type ErrorKind int

const (
	// ErrInvalidPose means a rotation matrix is not orthogonal or not proper.
	ErrInvalidPose ErrorKind = iota
	// ErrBoundsViolation means a translation exceeds r_max on a bounded trajectory.
	ErrBoundsViolation
	// ErrInvalidScale means a scaling factor is NaN or infinite.
	ErrInvalidScale
	// ErrUnsupportedFormat means the input encoding was not recognized.
	ErrUnsupportedFormat
	// ErrDimensionMismatch means sequence lengths or vector widths do not line up.
	ErrDimensionMismatch
)

// String returns the kind's wire name.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidPose:
		return "invalid_pose"
	case ErrBoundsViolation:
		return "bounds_violation"
	case ErrInvalidScale:
		return "invalid_scale"
	case ErrUnsupportedFormat:
		return "unsupported_format"
	case ErrDimensionMismatch:
		return "dimension_mismatch"
	default:
		return "unknown"
	}
}

// Error is a tagged, synchronous failure raised at the point of violation.
type Error struct {
	Kind ErrorKind
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// newError creates a tagged error with a formatted message.
func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from an error chain.
// The second return value is false when err carries no kind.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrIncompatibleType reports a tree, sequence or scalar merged onto a
	// value of a different kind.
	ErrIncompatibleType = errors.New("incompatible types")

	// ErrLengthMismatch reports two sequences of different length.
	ErrLengthMismatch = errors.New("sequence length mismatch")

	// ErrUndefinedPhase reports a fragment phase missing from the base config.
	ErrUndefinedPhase = errors.New("undefined phase")

	// ErrUndefinedMiddleware reports a fragment middleware missing from its phase.
	ErrUndefinedMiddleware = errors.New("undefined middleware")
)

// MergeError describes a failed merge at a key path.
type MergeError struct {
	// Kind is ErrIncompatibleType or ErrLengthMismatch.
	Kind error
	// Path is the dotted/bracketed key path, e.g. "routes.static[2]".
	Path string
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	if errors.Is(e.Kind, ErrLengthMismatch) {
		return fmt.Sprintf("cannot merge array values of different length for the option `%s`", e.Path)
	}
	return fmt.Sprintf("cannot merge values of incompatible types for the option `%s`", e.Path)
}

// Is matches the error kind.
func (e *MergeError) Is(target error) bool {
	return target == e.Kind
}

// UndefinedError reports a phase or middleware that a fragment references but
// the base configuration never declared.
type UndefinedError struct {
	Phase      string
	Middleware string // empty for undefined phases
}

// Error implements the error interface.
func (e *UndefinedError) Error() string {
	if e.Middleware == "" {
		return fmt.Sprintf("phase %q is not defined in the main config", e.Phase)
	}
	return fmt.Sprintf("middleware %q in phase %q is not defined in the main config", e.Middleware, e.Phase)
}

// Is matches ErrUndefinedPhase or ErrUndefinedMiddleware.
func (e *UndefinedError) Is(target error) bool {
	if e.Middleware == "" {
		return target == ErrUndefinedPhase
	}
	return target == ErrUndefinedMiddleware
}

// LoadError names the file responsible for a load failure.
type LoadError struct {
	File string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot apply %s: %v", e.File, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

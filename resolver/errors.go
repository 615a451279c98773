package resolver

import (
	"errors"
	"fmt"
)

// ErrPathNotFound is matched by every resolution failure.
var ErrPathNotFound = errors.New("path not found")

// ErrInvalidReference is returned for a reference with more than one "#".
var ErrInvalidReference = errors.New("invalid reference")

// PathError reports a reference no candidate location exists for.
type PathError struct {
	// Path is the path as it was looked up, before any resolution.
	Path string
	// Root is the application root the lookup was relative to.
	Root string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("cannot resolve path %q", e.Path)
}

// Is reports whether target is ErrPathNotFound.
func (e *PathError) Is(target error) bool {
	return target == ErrPathNotFound
}

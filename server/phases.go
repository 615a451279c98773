package server

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPhase is matched by phase errors.
var ErrPhase = errors.New("invalid middleware phase")

// PhaseError reports an unknown phase or an ordering conflict.
type PhaseError struct {
	Phase string
	// After is set for ordering conflicts: Phase was requested after it but
	// is already defined before it.
	After string
}

func (e *PhaseError) Error() string {
	if e.After != "" {
		return fmt.Sprintf("ordering conflict: cannot add phase %q after %q", e.Phase, e.After)
	}
	return fmt.Sprintf("unknown middleware phase %q", e.Phase)
}

// Is reports whether target is ErrPhase.
func (e *PhaseError) Is(target error) bool {
	return target == ErrPhase
}

// mergePhases merges names into current. It returns a new slice.
func mergePhases(current, names []string) ([]string, error) {
	merged := append([]string(nil), current...)
	pos := 0
	prev := ""
	for _, name := range names {
		if name == "" || strings.Contains(name, ":") {
			return nil, fmt.Errorf("%w: bad phase name %q", ErrPhase, name)
		}
		if i := indexOf(merged, name); i >= 0 {
			if i < pos {
				return nil, &PhaseError{Phase: name, After: prev}
			}
			pos = i + 1
		} else {
			merged = append(merged, "")
			copy(merged[pos+1:], merged[pos:])
			merged[pos] = name
			pos++
		}
		prev = name
	}
	return merged, nil
}

// splitPhase splits "name:before" into its base and qualifier.
func splitPhase(phase string) (base, qualifier string, err error) {
	base, qualifier, _ = strings.Cut(phase, ":")
	switch qualifier {
	case "", "before", "after":
	default:
		return "", "", &PhaseError{Phase: phase}
	}
	if base == "" {
		return "", "", &PhaseError{Phase: phase}
	}
	return base, qualifier, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

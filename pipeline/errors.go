package pipeline

import (
	"errors"
	"fmt"
)

// ErrFactoryType is matched by errors for modules that are not middleware
// factories.
var ErrFactoryType = errors.New("middleware factory must be a function")

// FactoryError reports a resolved module, or its fragment, that cannot be
// used as a middleware factory.
type FactoryError struct {
	SourceFile string
	Fragment   string
	// Type is the Go type found, or empty when the fragment is missing.
	Type string
}

func (e *FactoryError) Error() string {
	ref := e.SourceFile
	if e.Fragment != "" {
		ref += "#" + e.Fragment
	}
	if e.Type == "" {
		return fmt.Sprintf("%v: %s is not exported", ErrFactoryType, ref)
	}
	return fmt.Sprintf("%v: %s has type %s", ErrFactoryType, ref, e.Type)
}

// Is reports whether target is ErrFactoryType.
func (e *FactoryError) Is(target error) bool {
	return target == ErrFactoryType
}

// InstructionError wraps a failure to install one instruction.
type InstructionError struct {
	Instruction Instruction
	Err         error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("cannot install middleware %s in phase %q: %v",
		e.Instruction.Reference(), e.Instruction.Phase(), e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// ConfigError reports a middleware configuration value of the wrong shape.
type ConfigError struct {
	Phase      string
	Middleware string
	Reason     string
}

func (e *ConfigError) Error() string {
	if e.Middleware == "" {
		return fmt.Sprintf("invalid config for phase %q: %s", e.Phase, e.Reason)
	}
	return fmt.Sprintf("invalid config for middleware %q in phase %q: %s", e.Middleware, e.Phase, e.Reason)
}

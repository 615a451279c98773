package middleware

import (
	"fmt"
	"time"
)

// DefaultStack builds the stack a config of
//
//	{"witty#recover": {}, "witty#requestId": {}, "witty#logger": {}}
//
// would install, for hosts that register middleware in code.
func DefaultStack(logger Logger) []Middleware {
	return DefaultStackWithTimeout(logger, 0)
}

// DefaultStackWithTimeout is DefaultStack with witty#timeout placed before
// the logger. A timeout of zero or less leaves it out.
func DefaultStackWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	builtins := Builtins(logger)
	stack := []Middleware{
		build(builtins, "recover", nil),
		build(builtins, "requestId", nil),
	}
	if timeout > 0 {
		stack = append(stack, build(builtins, "timeout", timeout.String()))
	}
	return append(stack, build(builtins, "logger", nil))
}

func build(builtins map[string]Factory, name string, params any) Middleware {
	mw, err := builtins[name](params)
	if err != nil {
		panic(fmt.Sprintf("middleware: builtin %s: %v", name, err))
	}
	return mw
}

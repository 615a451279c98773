package middleware

import (
	"fmt"
	"math"
	"net/http"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Config is what a host receives for one configured middleware occurrence.
type Config struct {
	// Phase is the phase to install into, optionally with a ":before" or
	// ":after" qualifier.
	Phase string

	// Params is passed to the factory. It holds plain values: map[string]any,
	// []any, strings, numbers, bools or nil.
	Params any

	// Enabled is false when the configuration sets "enabled": false.
	Enabled bool

	// Paths restricts the middleware to requests under these URL path
	// prefixes. Empty means every request.
	Paths []string
}

// Factory builds a middleware from its configured params.
type Factory func(params any) (Middleware, error)

// Handler adapts a plain middleware into a Factory that ignores params.
func Handler(m Middleware) Factory {
	return func(any) (Middleware, error) {
		return m, nil
	}
}

// AsFactory converts the function shapes a middleware module may export into
// a Factory. It reports false for anything that is not invocable as one.
func AsFactory(v any) (Factory, bool) {
	switch fn := v.(type) {
	case Factory:
		return fn, fn != nil
	case func(any) (Middleware, error):
		return fn, fn != nil
	case func(any) Middleware:
		if fn == nil {
			return nil, false
		}
		return func(params any) (Middleware, error) { return fn(params), nil }, true
	case func() Middleware:
		if fn == nil {
			return nil, false
		}
		return func(any) (Middleware, error) { return fn(), nil }, true
	case Middleware:
		return Handler(fn), fn != nil
	case func(http.Handler) http.Handler:
		return Handler(fn), fn != nil
	}
	return nil, false
}

// DecodeParams decodes plain params into out, which must be a pointer to a
// struct whose fields carry json tags. A nil params leaves out untouched so
// defaults set by the caller survive; present keys replace the default
// value, including whole slices and maps. Keys with no matching field and
// non-integral numbers for integer fields are errors.
func DecodeParams(params any, out any) error {
	if params == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "json",
		ErrorUnused: true,
		ZeroFields:  true,
		DecodeHook:  integralNumbers,
	})
	if err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// integralNumbers refuses to truncate a float into an integer field.
func integralNumbers(_ reflect.Type, to reflect.Type, data any) (any, error) {
	f, ok := data.(float64)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("expected an integer, got %v", f)
		}
		return int64(f), nil
	}
	return data, nil
}

// Args returns params as positional arguments: a sequence is used as is,
// nil gives none and any other value is a single argument.
func Args(params any) []any {
	switch p := params.(type) {
	case nil:
		return nil
	case []any:
		return p
	default:
		return []any{p}
	}
}

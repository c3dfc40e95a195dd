// Package funcutil provides generic call-site adapters: trimming excess
// arguments when bridging loosely typed callbacks, and replacing failures
// with fallback values.
package funcutil

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotFunc indicates the value passed as a callback is not a function.
var ErrNotFunc = errors.New("funcutil: not a function")

// CallTrimmed calls fn with args, silently dropping any arguments beyond
// the function's declared arity. Variadic functions receive every argument
// unfiltered. Returns fn's results as a slice.
//
// Supplying fewer arguments than fn declares is still an error, as is an
// argument that cannot be assigned to its parameter type.
func CallTrimmed(fn any, args ...any) ([]any, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, ErrNotFunc
	}
	t := v.Type()

	n := t.NumIn()
	if t.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("funcutil: %d arguments for variadic function taking at least %d", len(args), n-1)
		}
	} else {
		if len(args) < n {
			return nil, fmt.Errorf("funcutil: %d arguments for function taking %d", len(args), n)
		}
		args = args[:n]
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := paramType(t, i)
		av := reflect.ValueOf(a)
		if a == nil {
			av = reflect.Zero(pt)
		} else if !av.Type().AssignableTo(pt) {
			if !av.Type().ConvertibleTo(pt) {
				return nil, fmt.Errorf("funcutil: argument %d: %s is not assignable to %s", i, av.Type(), pt)
			}
			av = av.Convert(pt)
		}
		in[i] = av
	}

	outVals := v.Call(in)
	out := make([]any, len(outVals))
	for i, ov := range outVals {
		out[i] = ov.Interface()
	}
	return out, nil
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

// WithFallback wraps fn so that a matching error is swallowed and the
// fallback value returned instead. A nil match swallows every error;
// non-matching errors propagate unchanged.
func WithFallback[T any](fn func() (T, error), fallback T, match func(error) bool) func() (T, error) {
	return WithFallbackFunc(fn, func(error) T { return fallback }, match)
}

// WithFallbackFunc is WithFallback with a computed fallback: the handler
// receives the swallowed error.
func WithFallbackFunc[T any](fn func() (T, error), handler func(error) T, match func(error) bool) func() (T, error) {
	return func() (T, error) {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if match != nil && !match(err) {
			return v, err
		}
		return handler(err), nil
	}
}

// MatchErrors returns a predicate matching errors.Is against any of the
// given sentinels, for use with WithFallback.
func MatchErrors(sentinels ...error) func(error) bool {
	return func(err error) bool {
		for _, s := range sentinels {
			if errors.Is(err, s) {
				return true
			}
		}
		return false
	}
}

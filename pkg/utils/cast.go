package utils

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNilParam = errors.New("cast error: got nil param")
	ErrCast     = errors.New("cast error")
)

// SafeCast is a type assertion that reports a mismatch as ErrCast.
func SafeCast[T any](param any) (T, error) {
	var getT T

	if param == nil {
		return getT, ErrNilParam
	}

	v, ok := param.(T)
	if !ok {
		return v, fmt.Errorf("%w: got type: %s, want type: %s", ErrCast, reflect.TypeOf(param), reflect.TypeOf(&getT).Elem())
	}

	return v, nil
}

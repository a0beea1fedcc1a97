package intercept

import (
	"fmt"
	"reflect"
)

// MethodNotFoundError is returned when the proxied bean has no such method.
type MethodNotFoundError struct {
	Type   reflect.Type
	Method string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("type %v has no method %q", e.Type, e.Method)
}

// InvocationError wraps failures raised while dispatching a proxied call.
type InvocationError struct {
	Method string
	Cause  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation of %s failed: %v", e.Method, e.Cause)
}

func (e *InvocationError) Unwrap() error { return e.Cause }

// ResultTypeError is returned by Result when the first result has another type.
type ResultTypeError struct {
	Want reflect.Type
	Got  reflect.Type
}

func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("result type mismatch: expected %v, got %v", e.Want, e.Got)
}

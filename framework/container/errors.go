package container

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/km-arc/go-resolver/framework/scope"
)

// UnresolvedReferenceError is returned when a reference names nothing the
// container knows how to build.
type UnresolvedReferenceError struct {
	Ref    Reference
	Reason string
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unresolved reference %s", e.Ref)
	}
	return fmt.Sprintf("unresolved reference %s: %s", e.Ref, e.Reason)
}

// AmbiguousAliasError is returned when an alias is bound to a second binding.
type AmbiguousAliasError struct {
	Alias    string
	Existing string
	Rejected string
}

func (e *AmbiguousAliasError) Error() string {
	return fmt.Sprintf("alias %q already refers to %s, cannot point it to %s", e.Alias, e.Existing, e.Rejected)
}

// AmbiguousReferenceError is returned when an identifier or definition
// names an implementation used by several bindings and none of them is the
// type's own.
type AmbiguousReferenceError struct {
	Ref        Reference
	Candidates []string
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("reference %s is implemented by several bindings: %s", e.Ref, strings.Join(e.Candidates, ", "))
}

// InvalidBindingError reports a malformed Bind, Alias or Instance call.
type InvalidBindingError struct {
	Abstract reflect.Type
	Reason   string
}

func (e *InvalidBindingError) Error() string {
	return fmt.Sprintf("invalid binding for %v: %s", e.Abstract, e.Reason)
}

// CircularDependencyError is returned when a bean needs itself to be built.
// Chain lists the names being built, outermost first, ending with the
// repeated one.
type CircularDependencyError struct {
	Chain []scope.Name
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, len(e.Chain))
	for i, n := range e.Chain {
		parts[i] = string(n)
	}
	return "circular dependency: " + strings.Join(parts, " -> ")
}

// ConstructionError wraps any failure while building a bean: its
// constructor, its factory, an argument or one of its interceptors.
type ConstructionError struct {
	Name  scope.Name
	Type  reflect.Type
	Cause error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cannot construct %s: %v", e.Name, e.Cause)
}

func (e *ConstructionError) Unwrap() error { return e.Cause }

// NotAnInterceptorError is returned when an interceptor reference resolves
// to a bean that does not implement intercept.Interceptor.
type NotAnInterceptorError struct {
	Ref string
	Got reflect.Type
}

func (e *NotAnInterceptorError) Error() string {
	return fmt.Sprintf("interceptor reference %q resolved to %v, which is not an interceptor", e.Ref, e.Got)
}

// TypeMismatchError is returned by the typed helpers when the resolved bean
// is not a T. Intercepted beans without a registered proxy wrapper resolve
// to *intercept.Proxy and fail this way.
type TypeMismatchError struct {
	Ref  Reference
	Want reflect.Type
	Got  reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s resolved to %v, expected %v", e.Ref, e.Got, e.Want)
}

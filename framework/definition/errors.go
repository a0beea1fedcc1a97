package definition

import (
	"fmt"
	"reflect"
)

// DuplicateIDError is returned when two definitions claim the same identifier.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("definition id %q is already taken", e.ID)
}

// DuplicateDeclarationError is returned when a type is declared twice.
type DuplicateDeclarationError struct {
	Type reflect.Type
}

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("type %v is already declared", e.Type)
}

// InvalidConstructorError is returned when a constructor cannot build the
// declared type.
type InvalidConstructorError struct {
	Type   reflect.Type
	Reason string
}

func (e *InvalidConstructorError) Error() string {
	return fmt.Sprintf("invalid constructor for %v: %s", e.Type, e.Reason)
}

// AmbiguousConstructorError is returned when more than one constructor
// qualifies as the default.
type AmbiguousConstructorError struct {
	Type  reflect.Type
	Count int
}

func (e *AmbiguousConstructorError) Error() string {
	return fmt.Sprintf("type %v has %d candidate default constructors, want exactly one", e.Type, e.Count)
}

// NoDefaultConstructorError is returned when no constructor qualifies as
// the default.
type NoDefaultConstructorError struct {
	Type reflect.Type
}

func (e *NoDefaultConstructorError) Error() string {
	return fmt.Sprintf("type %v has no default constructor: mark one with Default() or declare a zero-argument constructor", e.Type)
}

// ArgumentTypeError is returned when a constructor argument has the wrong type.
type ArgumentTypeError struct {
	Index int
	Want  reflect.Type
	Got   reflect.Type
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("argument %d: %v is not assignable to %v", e.Index, e.Got, e.Want)
}

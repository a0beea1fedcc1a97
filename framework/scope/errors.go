package scope

import "fmt"

// UnknownScopeError is returned for an unregistered scope id.
type UnknownScopeError struct {
	ID string
}

func (e *UnknownScopeError) Error() string {
	return fmt.Sprintf("scope %q is not registered", e.ID)
}

// DuplicateScopeError is returned when a scope id is registered twice.
type DuplicateScopeError struct {
	ID string
}

func (e *DuplicateScopeError) Error() string {
	return fmt.Sprintf("scope %q is already registered", e.ID)
}

// RealizationError reports a scope whose store could not be obtained.
type RealizationError struct {
	ID    string
	Cause error
}

func (e *RealizationError) Error() string {
	return fmt.Sprintf("cannot realize scope %q: %v", e.ID, e.Cause)
}

func (e *RealizationError) Unwrap() error { return e.Cause }

package matcher

import (
	"fmt"

	"github.com/km-arc/go-resolver/framework/intercept"
)

// DuplicateInterceptorError is returned when an interceptor is registered
// twice under the same matcher.
type DuplicateInterceptorError struct {
	Matcher Matcher
	Handle  intercept.Handle
}

func (e *DuplicateInterceptorError) Error() string {
	return fmt.Sprintf("interceptor %s is already bound to matcher %s", e.Handle, e.Matcher)
}

// InvalidRegistrationError reports a malformed Register call.
type InvalidRegistrationError struct {
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	return "invalid interceptor registration: " + e.Reason
}

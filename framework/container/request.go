package container

import (
	"reflect"

	"github.com/km-arc/go-resolver/framework/definition"
	"github.com/km-arc/go-resolver/framework/intercept"
	"github.com/km-arc/go-resolver/framework/scope"
)

// Request collects everything known about one construction. It is built
// per construction, handed to AfterResolving callbacks and then dropped.
type Request struct {
	Declared   reflect.Type
	Impl       reflect.Type
	Name       scope.Name
	Alias      string
	Definition *definition.Definition
	Scope      scope.Scope

	// Constructor is nil when the binding uses a factory.
	Constructor *definition.Constructor
	ParamTypes  []reflect.Type
	Args        []any

	// Interceptors is the applicable chain, each with the matcher it is
	// bound under.
	Interceptors []intercept.Link
}

// Intercepted reports whether the instance was wrapped in a proxy.
func (r *Request) Intercepted() bool { return len(r.Interceptors) > 0 }

// resolution is the stack of names being built by one top-level Get.
type resolution struct {
	stack []scope.Name
}

func (r *resolution) push(n scope.Name) { r.stack = append(r.stack, n) }

func (r *resolution) pop() { r.stack = r.stack[:len(r.stack)-1] }

func (r *resolution) contains(n scope.Name) bool {
	for _, s := range r.stack {
		if s == n {
			return true
		}
	}
	return false
}

// cycle returns the part of the stack that loops back to n.
func (r *resolution) cycle(n scope.Name) []scope.Name {
	for i, s := range r.stack {
		if s == n {
			out := make([]scope.Name, 0, len(r.stack)-i+1)
			out = append(out, r.stack[i:]...)
			return append(out, n)
		}
	}
	return []scope.Name{n}
}

// scopedResolver is the Resolver handed to factories. It resolves on the
// caller's stack so cycles through factories are caught.
type scopedResolver struct {
	c   *Container
	res *resolution
}

func (s *scopedResolver) Get(ref Reference) (any, error) { return s.c.resolve(ref, s.res) }

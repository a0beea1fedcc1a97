package intercept

import (
	"fmt"
	"reflect"

	"github.com/km-arc/go-resolver/framework/definition"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Invocation is the call context handed to each interceptor.
type Invocation struct {
	proxy  *Proxy
	method string
	args   []any
	pos    int
}

// Definition returns the definition of the proxied bean.
func (inv *Invocation) Definition() *definition.Definition { return inv.proxy.def }

// Method returns the invoked method name.
func (inv *Invocation) Method() string { return inv.method }

// Target returns the real, unwrapped bean.
func (inv *Invocation) Target() any { return inv.proxy.target }

// Args returns a copy of the current arguments.
func (inv *Invocation) Args() []any {
	out := make([]any, len(inv.args))
	copy(out, inv.args)
	return out
}

// SetArgs replaces the arguments passed further down the chain.
func (inv *Invocation) SetArgs(args ...any) { inv.args = args }

// Proceed hands the call to the next applicable interceptor, or to the
// target once the chain is exhausted. It may be called more than once.
func (inv *Invocation) Proceed() ([]any, error) {
	return inv.proxy.dispatch(inv.method, inv.args, inv.pos+1)
}

// ── Proxy ─────────────────────────────────────────────────────────────────────

// Proxy is the decorator the container returns for intercepted beans. Every
// call goes through the interceptor chain in order before reaching the
// target. Typed forwarding wrappers embed a *Proxy to implement the declared
// interface.
type Proxy struct {
	target any
	def    *definition.Definition
	chain  []Link
}

// NewProxy wraps target with the given chain.
func NewProxy(target any, def *definition.Definition, chain []Link) *Proxy {
	c := make([]Link, len(chain))
	copy(c, chain)
	return &Proxy{target: target, def: def, chain: c}
}

// Target returns the real bean.
func (p *Proxy) Target() any { return p.target }

// Definition returns the definition of the real bean.
func (p *Proxy) Definition() *definition.Definition { return p.def }

// Chain returns a copy of the interceptor chain.
func (p *Proxy) Chain() []Link {
	out := make([]Link, len(p.chain))
	copy(out, p.chain)
	return out
}

// Invoke calls method on the target through the chain. A trailing error
// result of the method is returned as err and stripped from the results.
// Panics raised by interceptors or the target come back as InvocationError.
func (p *Proxy) Invoke(method string, args ...any) (out []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &InvocationError{Method: method, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	return p.dispatch(method, args, 0)
}

func (p *Proxy) dispatch(method string, args []any, from int) ([]any, error) {
	for i := from; i < len(p.chain); i++ {
		link := p.chain[i]
		if !link.applies(p.def) {
			continue
		}
		return link.Interceptor.Intercept(&Invocation{proxy: p, method: method, args: args, pos: i})
	}
	return p.call(method, args)
}

func (p *Proxy) call(name string, args []any) ([]any, error) {
	m := reflect.ValueOf(p.target).MethodByName(name)
	if !m.IsValid() {
		return nil, &MethodNotFoundError{Type: reflect.TypeOf(p.target), Method: name}
	}

	mt := m.Type()
	numIn := mt.NumIn()
	if (!mt.IsVariadic() && len(args) != numIn) || (mt.IsVariadic() && len(args) < numIn-1) {
		return nil, &InvocationError{
			Method: name,
			Cause:  fmt.Errorf("expects %d arguments, got %d", numIn, len(args)),
		}
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var want reflect.Type
		if mt.IsVariadic() && i >= numIn-1 {
			want = mt.In(numIn - 1).Elem()
		} else {
			want = mt.In(i)
		}
		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			return nil, &InvocationError{
				Method: name,
				Cause:  fmt.Errorf("argument %d: %v is not assignable to %v", i, v.Type(), want),
			}
		}
		in[i] = v
	}

	results := m.Call(in)

	numOut := mt.NumOut()
	if numOut > 0 && mt.Out(numOut-1) == errorType {
		var err error
		if e := results[numOut-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
		return values(results[:numOut-1]), err
	}
	return values(results), nil
}

func values(vs []reflect.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v.Interface()
	}
	return out
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }

// ── Typed results ─────────────────────────────────────────────────────────────

// Result extracts the i-th result of an Invoke call as T. It is meant for
// hand-written forwarding wrappers:
//
//	func (g greeterProxy) Greet(name string) (string, error) {
//	    return intercept.Result[string](g.Invoke("Greet", name))
//	}
func Result[T any](out []any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(out) == 0 || out[0] == nil {
		return zero, nil
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, &ResultTypeError{Want: reflect.TypeOf((*T)(nil)).Elem(), Got: reflect.TypeOf(out[0])}
	}
	return v, nil
}

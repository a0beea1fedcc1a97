package definition

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Param describes one constructor parameter.
type Param struct {
	Index int
	Type  reflect.Type
	// Inject marks the parameter for resolution through the container.
	// Unmarked parameters receive their zero value.
	Inject bool
	// Qualifier, when set, resolves the parameter by alias instead of by type.
	Qualifier string
}

// Constructor is a function that builds an instance of a Definition's type.
//
// Supported signatures:
//   - func(...) *T
//   - func(...) T
//   - func(...) (*T, error)
type Constructor struct {
	fn           reflect.Value
	params       []Param
	returnType   reflect.Type
	returnsError bool
	isDefault    bool
	synthesized  bool
}

// CtorOption configures a declared constructor.
type CtorOption func(*Constructor) error

// Default marks the constructor as the one the container must use.
func Default() CtorOption {
	return func(c *Constructor) error {
		c.isDefault = true
		return nil
	}
}

// Inject marks the parameters at the given indices for injection.
func Inject(indices ...int) CtorOption {
	return func(c *Constructor) error {
		for _, i := range indices {
			if i < 0 || i >= len(c.params) {
				return fmt.Errorf("inject index %d out of range (constructor has %d params)", i, len(c.params))
			}
			c.params[i].Inject = true
		}
		return nil
	}
}

// InjectAll marks every parameter for injection.
func InjectAll() CtorOption {
	return func(c *Constructor) error {
		for i := range c.params {
			c.params[i].Inject = true
		}
		return nil
	}
}

// Qualify marks the parameter at index for injection by alias.
func Qualify(index int, alias string) CtorOption {
	return func(c *Constructor) error {
		if index < 0 || index >= len(c.params) {
			return fmt.Errorf("qualify index %d out of range (constructor has %d params)", index, len(c.params))
		}
		if alias == "" {
			return fmt.Errorf("qualifier for param %d cannot be empty", index)
		}
		c.params[index].Inject = true
		c.params[index].Qualifier = alias
		return nil
	}
}

// parseConstructor analyzes a constructor function and extracts metadata.
func parseConstructor(fn any) (*Constructor, error) {
	if fn == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic constructors are not supported")
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (T) or (T, error), got %d return values", numOut)
	}

	returnsError := false
	if numOut == 2 {
		if !fnType.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	params := make([]Param, fnType.NumIn())
	for i := range params {
		params[i] = Param{Index: i, Type: fnType.In(i)}
	}

	return &Constructor{
		fn:           fnValue,
		params:       params,
		returnType:   fnType.Out(0),
		returnsError: returnsError,
	}, nil
}

func zeroValueConstructor(t reflect.Type) *Constructor {
	return &Constructor{
		returnType:  t,
		synthesized: true,
	}
}

// Params returns a copy of the parameter descriptors.
func (c *Constructor) Params() []Param {
	out := make([]Param, len(c.params))
	copy(out, c.params)
	return out
}

// ParamTypes returns the parameter types in order.
func (c *Constructor) ParamTypes() []reflect.Type {
	out := make([]reflect.Type, len(c.params))
	for i, p := range c.params {
		out[i] = p.Type
	}
	return out
}

// IsDefault reports whether the constructor was explicitly marked Default.
func (c *Constructor) IsDefault() bool { return c.isDefault }

// ReturnType is the type the constructor produces.
func (c *Constructor) ReturnType() reflect.Type { return c.returnType }

// Synthesized reports whether the constructor was generated for a struct
// type without declared constructors.
func (c *Constructor) Synthesized() bool { return c.synthesized }

// Call invokes the constructor. A nil argument is passed as the parameter's
// zero value. A non-nil error result is returned as-is.
func (c *Constructor) Call(args []any) (any, error) {
	if c.synthesized {
		return reflect.New(c.returnType.Elem()).Interface(), nil
	}
	if len(args) != len(c.params) {
		return nil, fmt.Errorf("constructor expects %d arguments, got %d", len(c.params), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := c.params[i].Type
		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			return nil, &ArgumentTypeError{Index: i, Want: want, Got: v.Type()}
		}
		in[i] = v
	}

	results := c.fn.Call(in)
	if c.returnsError {
		if errValue := results[1]; !errValue.IsNil() {
			return nil, errValue.Interface().(error)
		}
	}
	return results[0].Interface(), nil
}

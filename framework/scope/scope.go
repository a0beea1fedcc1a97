package scope

import "fmt"

// Name is the canonical key of a bean. Every request shape for the same
// binding canonicalizes to the same Name, and all caching is keyed by it.
type Name string

func (n Name) String() string { return string(n) }

// Policy is the lifecycle rule a Scope applies.
type Policy int

const (
	// Singleton keeps the first instance built for a Name.
	Singleton Policy = iota
	// Prototype never keeps anything.
	Prototype
	// Custom delegates to a Store resolved as a bean.
	Custom
)

func (p Policy) String() string {
	switch p {
	case Singleton:
		return "singleton"
	case Prototype:
		return "prototype"
	case Custom:
		return "custom"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Identifiers of the built-in scopes.
const (
	SingletonID = "singleton"
	PrototypeID = "prototype"
)

// Scope is a named lifecycle policy. It is immutable once registered.
type Scope struct {
	ID     string
	Policy Policy
	// StoreRef names the bean realizing a Custom scope. The container
	// interprets it; a Store value is used as is.
	StoreRef any
}

// SingletonScope and PrototypeScope are registered in every Registry.
var (
	SingletonScope = Scope{ID: SingletonID, Policy: Singleton}
	PrototypeScope = Scope{ID: PrototypeID, Policy: Prototype}
)

// NewCustom describes a scope whose store is the bean behind storeRef.
//
//	scope.NewCustom("request", "requestStore")
func NewCustom(id string, storeRef any) Scope {
	return Scope{ID: id, Policy: Custom, StoreRef: storeRef}
}

func (s Scope) String() string { return s.ID + "(" + s.Policy.String() + ")" }

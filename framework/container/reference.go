package container

import (
	"fmt"
	"reflect"

	"github.com/km-arc/go-resolver/framework/definition"
)

// RefKind tells which request shape a Reference holds.
type RefKind int

const (
	KindType RefKind = iota
	KindAlias
	KindID
	KindDefinition
)

func (k RefKind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindAlias:
		return "alias"
	case KindID:
		return "id"
	case KindDefinition:
		return "definition"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reference is a request for a bean. Build one with ByType, TypeOf,
// ByNamedType, ByAlias, ByID or ByDefinition.
type Reference struct {
	kind RefKind
	typ  reflect.Type
	name string // binding name for KindType, alias or id otherwise
	def  *definition.Definition
	orID bool   // alias lookups fall back to identifiers
}

// ByType requests the default binding of t.
func ByType(t reflect.Type) Reference { return Reference{kind: KindType, typ: t} }

// TypeOf requests the default binding of T. T may be an interface.
//
//	ref := container.TypeOf[Greeter]()
func TypeOf[T any]() Reference { return ByType(reflect.TypeOf((*T)(nil)).Elem()) }

// ByNamedType requests the binding of t registered under name.
func ByNamedType(t reflect.Type, name string) Reference {
	return Reference{kind: KindType, typ: t, name: name}
}

// ByAlias requests the binding an alias points to.
func ByAlias(alias string) Reference { return Reference{kind: KindAlias, name: alias} }

// ByName requests the binding an alias points to or, when no such alias
// exists, the type whose definition has name as identifier. Make and
// interceptor references use it.
func ByName(name string) Reference { return Reference{kind: KindAlias, name: name, orID: true} }

// ByID requests the type whose definition has the given identifier.
func ByID(id string) Reference { return Reference{kind: KindID, name: id} }

// ByDefinition requests the type a definition describes.
func ByDefinition(def *definition.Definition) Reference {
	return Reference{kind: KindDefinition, def: def}
}

// refOf turns the loose forms accepted by registration helpers into a
// Reference: a Reference, a reflect.Type, a *definition.Definition, or a
// string, which is read as ByName.
func refOf(v any) (Reference, bool) {
	switch r := v.(type) {
	case Reference:
		return r, true
	case reflect.Type:
		return ByType(r), true
	case *definition.Definition:
		return ByDefinition(r), true
	case string:
		return ByName(r), true
	default:
		return Reference{}, false
	}
}

func (r Reference) Kind() RefKind { return r.kind }

func (r Reference) String() string {
	switch r.kind {
	case KindType:
		if r.typ == nil {
			return "type(<nil>)"
		}
		if r.name != "" {
			return "type(" + r.typ.String() + "#" + r.name + ")"
		}
		return "type(" + r.typ.String() + ")"
	case KindDefinition:
		if r.def == nil {
			return "definition(<nil>)"
		}
		return "definition(" + r.def.ID() + ")"
	default:
		return r.kind.String() + "(" + r.name + ")"
	}
}

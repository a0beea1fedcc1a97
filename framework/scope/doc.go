// Package scope implements bean lifecycles.
//
// A Scope pairs an id with a Policy. Singleton keeps the first instance per
// Name, Prototype keeps nothing, and Custom delegates to a Store that is
// itself resolved as a bean the first time the scope is used (realization).
package scope

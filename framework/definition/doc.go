// Package definition holds the metadata the container resolves against.
//
// A Definition describes one Go type: a stable identifier, free-form
// metadata tags and the constructors able to build it. The Store hands out
// exactly one *Definition per type, so callers may compare and cache
// definitions by pointer.
//
//	store := definition.NewStore()
//	store.Declare((*Mailer)(nil),
//	    definition.WithID("mailer"),
//	    definition.WithTag("scope", "singleton"),
//	    definition.WithConstructor(NewMailer, definition.Default(), definition.Inject(0)),
//	)
//
//	def, _ := store.ByID("mailer")
//	def.HasTag("scope") // true
package definition

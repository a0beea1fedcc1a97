// Package matcher selects interceptors for bean definitions.
//
// A Matcher is a predicate over a *definition.Definition. Interceptors are
// registered under one or more matchers:
//
//	idx := matcher.NewIndex()
//	all := matcher.Any()
//	repos := matcher.TypeNamePrefix("Repo").Under(all)
//	_ = idx.Register(intercept.Direct(audit), all)
//	_ = idx.Register(intercept.Ref("txInterceptor"), repos)
//
// For a definition, every matching matcher is combined in registration
// order and the result is cached. HandlesFor expands the combination into
// an ordered chain: interceptors of a super matcher run before those of the
// matchers narrowed under it.
package matcher

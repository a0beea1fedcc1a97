// Package inspect serves a read-only JSON view of a live container.
//
//	GET /bindings             every binding with its scope and canonical name
//	GET /scopes               registered scopes and whether they are realized
//	GET /matchers             matcher → interceptor handles, in registry order
//	GET /matcher-cache        definition id → combined matcher
//	GET /canonical/{alias}    canonical name of an alias, 404 when unresolved
//
// No route changes the container: /canonical never loads a deferred
// provider to answer.
//
// Successful responses are wrapped as {"data": ...}, failures as
// {"message": ...}.
//
//	srv := inspect.NewServer(c, ":8089", logger)
//	err := srv.ListenAndServe(ctx)
package inspect

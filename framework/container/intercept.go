package container

import (
	"github.com/km-arc/go-resolver/framework/intercept"
	"github.com/km-arc/go-resolver/framework/matcher"
)

// ── Interceptor registration ──────────────────────────────────────────────────

// Register binds an interceptor handle under every matcher. A handle bound
// twice under one matcher is a *matcher.DuplicateInterceptorError and
// nothing is registered.
func (c *Container) Register(h intercept.Handle, ms ...matcher.Matcher) error {
	if err := c.index.Register(h, ms...); err != nil {
		return err
	}
	c.logger.Sugar().Debugw("interceptor registered", "interceptor", h.String(), "matchers", len(ms))
	return nil
}

// UnregisterMatcher drops a matcher and every interceptor bound under it.
func (c *Container) UnregisterMatcher(m matcher.Matcher) bool {
	return c.index.UnregisterMatcher(m)
}

// UnregisterInterceptor removes the handle from every matcher.
func (c *Container) UnregisterInterceptor(h intercept.Handle) bool {
	return c.index.UnregisterInterceptor(h)
}

// IsRegistered reports whether the matcher has interceptors.
func (c *Container) IsRegistered(m matcher.Matcher) bool {
	return c.index.Registry().IsRegistered(m)
}

// MatcherCache exposes the per-definition combined matcher cache.
func (c *Container) MatcherCache() *matcher.Cache {
	return c.index.Cache()
}

// ── Fluent builder ────────────────────────────────────────────────────────────

// InterceptBuilder is the fluent form of Register.
//
//	all := matcher.Any()
//	repos := matcher.TypeNamePrefix("Repo").Under(all)
//	c.Intercept(all).With(auditInterceptor)
//	c.Intercept(repos).WithRef("txInterceptor")
type InterceptBuilder struct {
	container *Container
	matchers  []matcher.Matcher
}

// Intercept starts a registration for the given matchers.
func (c *Container) Intercept(ms ...matcher.Matcher) *InterceptBuilder {
	return &InterceptBuilder{container: c, matchers: ms}
}

// With registers an interceptor instance.
func (b *InterceptBuilder) With(i intercept.Interceptor) error {
	return b.container.Register(intercept.Direct(i), b.matchers...)
}

// WithRef registers an interceptor bean by alias or identifier. The bean is
// resolved through the container each time a matching bean is built, so
// it follows its own scope.
func (b *InterceptBuilder) WithRef(name string) error {
	return b.container.Register(intercept.Ref(name), b.matchers...)
}

// WithFunc registers a function as an interceptor.
func (b *InterceptBuilder) WithFunc(name string, fn func(inv *intercept.Invocation) ([]any, error)) error {
	return b.With(intercept.Func(name, fn))
}

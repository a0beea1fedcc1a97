package container_test

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/definition"
	"github.com/km-arc/go-resolver/framework/intercept"
	"github.com/km-arc/go-resolver/framework/matcher"
	"github.com/km-arc/go-resolver/framework/scope"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Clock interface{ Now() int }

type fixedClock struct{ at int }

func (c *fixedClock) Now() int { return c.at }

type Greeter interface {
	Greet(name string) (string, error)
}

type englishGreeter struct{ Clock Clock }

func NewEnglishGreeter(c Clock) *englishGreeter { return &englishGreeter{Clock: c} }

func (g *englishGreeter) Greet(name string) (string, error) { return "hello " + name, nil }

type frenchGreeter struct{}

func (g *frenchGreeter) Greet(name string) (string, error) { return "bonjour " + name, nil }

type greeterProxy struct{ *intercept.Proxy }

func (g greeterProxy) Greet(name string) (string, error) {
	return intercept.Result[string](g.Invoke("Greet", name))
}

type FooBar struct{ id int }

func (f *FooBar) Name() string { return "foobar" }

type auditInterceptor struct {
	mu    sync.Mutex
	calls []string
}

func (a *auditInterceptor) Intercept(inv *intercept.Invocation) ([]any, error) {
	a.mu.Lock()
	a.calls = append(a.calls, inv.Method())
	a.mu.Unlock()
	return inv.Proceed()
}

// Cycle fixtures: A needs B, B needs A.
type cycleA struct{ B *cycleB }
type cycleB struct{ A *cycleA }

func trailInterceptor(name string, trail *[]string) intercept.Interceptor {
	return intercept.Func(name, func(inv *intercept.Invocation) ([]any, error) {
		*trail = append(*trail, name)
		return inv.Proceed()
	})
}

// ── suite ─────────────────────────────────────────────────────────────────────

type ContainerSuite struct {
	suite.Suite
	c    *container.Container
	logs *observer.ObservedLogs
}

func (s *ContainerSuite) SetupTest() {
	core, logs := observer.New(zap.DebugLevel)
	s.logs = logs
	s.c = container.New(container.WithLogger(zap.New(core)))
}

func TestContainerSuite(t *testing.T) {
	suite.Run(t, new(ContainerSuite))
}

func (s *ContainerSuite) declareGreeter() {
	_, err := s.c.Declare((*englishGreeter)(nil),
		definition.WithConstructor(NewEnglishGreeter, definition.Default(), definition.InjectAll()))
	s.Require().NoError(err)
	s.Require().NoError(s.c.Instance((*Clock)(nil), &fixedClock{at: 42}))
	s.Require().NoError(s.c.Bind((*Greeter)(nil), (*englishGreeter)(nil)))
}

// ── Canonicalization ──────────────────────────────────────────────────────────

func (s *ContainerSuite) TestCanonicalization_SameNameForEveryShape() {
	def, err := s.c.Declare((*Greeter)(nil), definition.WithID("greeter.api"))
	s.Require().NoError(err)
	s.declareGreeter()
	s.Require().NoError(s.c.Alias("greeter", (*Greeter)(nil)))

	byType, err := s.c.Canonicalize(container.TypeOf[Greeter]())
	s.Require().NoError(err)

	for _, ref := range []container.Reference{
		container.ByType(reflect.TypeOf((*Greeter)(nil)).Elem()),
		container.ByAlias("greeter"),
		container.ByID("greeter.api"),
		container.ByName("greeter.api"),
		container.ByDefinition(def),
	} {
		got, err := s.c.Canonicalize(ref)
		s.Require().NoError(err, ref.String())
		s.Equal(byType, got, ref.String())
	}

	again, _ := s.c.Canonicalize(container.TypeOf[Greeter]())
	s.Equal(byType, again, "canonicalization is deterministic")
}

func (s *ContainerSuite) TestCanonicalization_DistinctBindingsDiffer() {
	s.declareGreeter()
	s.Require().NoError(s.c.Bind((*Greeter)(nil), (*frenchGreeter)(nil), container.Named("fr")))

	en, err := s.c.Canonicalize(container.TypeOf[Greeter]())
	s.Require().NoError(err)
	fr, err := s.c.Canonicalize(container.ByAlias("fr"))
	s.Require().NoError(err)
	impl, err := s.c.Canonicalize(container.TypeOf[*englishGreeter]())
	s.Require().NoError(err)

	s.NotEqual(en, fr)
	s.NotEqual(en, impl)
	s.True(strings.HasSuffix(string(fr), "#fr"))
}

func (s *ContainerSuite) TestCanonicalization_IdentifierOnImplementation() {
	def, err := s.c.Declare((*englishGreeter)(nil),
		definition.WithID("greeter.english"),
		definition.WithConstructor(NewEnglishGreeter, definition.Default(), definition.InjectAll()))
	s.Require().NoError(err)
	s.Require().NoError(s.c.Instance((*Clock)(nil), &fixedClock{at: 3}))
	s.Require().NoError(s.c.Bind((*Greeter)(nil), (*englishGreeter)(nil)))
	s.Require().NoError(s.c.Alias("greeter", (*Greeter)(nil)))

	byAlias, err := s.c.Canonicalize(container.ByAlias("greeter"))
	s.Require().NoError(err)
	for _, ref := range []container.Reference{
		container.ByID("greeter.english"),
		container.ByName("greeter.english"),
		container.ByDefinition(def),
	} {
		got, err := s.c.Canonicalize(ref)
		s.Require().NoError(err, ref.String())
		s.Equal(byAlias, got, ref.String())
	}

	a, err := s.c.Make("greeter")
	s.Require().NoError(err)
	b, err := s.c.Make("greeter.english")
	s.Require().NoError(err)
	s.Same(a, b, "the identifier of an implementation reaches its binding")
	s.True(s.c.Bound(container.ByID("greeter.english")))

	s.Require().NoError(s.c.Bind((*Greeter)(nil), (*englishGreeter)(nil), container.Named("second")))
	var amb *container.AmbiguousReferenceError
	_, err = s.c.Make("greeter.english")
	s.Require().ErrorAs(err, &amb)
	s.Len(amb.Candidates, 2)

	s.Require().NoError(s.c.Singleton((*englishGreeter)(nil), nil))
	own, err := s.c.Canonicalize(container.ByID("greeter.english"))
	s.Require().NoError(err)
	impl, err := s.c.Canonicalize(container.TypeOf[*englishGreeter]())
	s.Require().NoError(err)
	s.Equal(impl, own, "a type bound as itself is its own binding")
}

func (s *ContainerSuite) TestSameInstanceThroughEveryShape() {
	s.declareGreeter()
	s.Require().NoError(s.c.Alias("greeter", (*Greeter)(nil)))

	a, err := s.c.Get(container.TypeOf[Greeter]())
	s.Require().NoError(err)
	b, err := s.c.Make("greeter")
	s.Require().NoError(err)
	s.Same(a, b)
}

func (s *ContainerSuite) TestUnresolvedReferences() {
	var unresolved *container.UnresolvedReferenceError

	_, err := s.c.Get(container.TypeOf[Greeter]())
	s.ErrorAs(err, &unresolved, "an interface without binding cannot be built")

	_, err = s.c.Make("nope")
	s.ErrorAs(err, &unresolved)

	_, err = s.c.Get(container.ByID("nope"))
	s.ErrorAs(err, &unresolved)

	_, err = container.ResolveNamed[Greeter](s.c, "nope")
	s.ErrorAs(err, &unresolved)
}

func (s *ContainerSuite) TestAmbiguousAliasRejectedAtRegistration() {
	s.declareGreeter()
	s.Require().NoError(s.c.Alias("greeter", (*Greeter)(nil)))
	s.Require().NoError(s.c.Alias("greeter", (*Greeter)(nil)), "re-registering the same alias is fine")

	var amb *container.AmbiguousAliasError
	s.ErrorAs(s.c.Alias("greeter", (*FooBar)(nil)), &amb)
	s.ErrorAs(s.c.Bind((*Greeter)(nil), (*frenchGreeter)(nil), container.Named("greeter")), &amb)
}

func (s *ContainerSuite) TestInvalidBindings() {
	var invalid *container.InvalidBindingError
	s.ErrorAs(s.c.Bind((*Greeter)(nil), (*FooBar)(nil)), &invalid)
	s.ErrorAs(s.c.Instance((*Greeter)(nil), &FooBar{}), &invalid)
	s.ErrorAs(s.c.Instance((*Greeter)(nil), nil), &invalid)
	s.ErrorAs(s.c.Alias("", (*Greeter)(nil)), &invalid)

	var unknown *scope.UnknownScopeError
	s.ErrorAs(s.c.Bind((*FooBar)(nil), nil, container.InScope("nope")), &unknown)
}

// ── Scopes ────────────────────────────────────────────────────────────────────

func (s *ContainerSuite) TestSingletonReturnsSameInstance() {
	a, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)
	b, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)
	s.Same(a, b)
	s.True(s.c.Resolved(container.TypeOf[*FooBar]()))
}

func (s *ContainerSuite) TestPrototypeNeverCaches() {
	s.Require().NoError(s.c.Prototype((*FooBar)(nil), nil))

	a, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)
	b, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)
	s.NotSame(a, b)
}

func (s *ContainerSuite) TestScopePrecedence() {
	_, err := s.c.Declare((*FooBar)(nil), definition.WithTag(container.ScopeTag, scope.PrototypeID))
	s.Require().NoError(err)

	a, _ := container.Resolve[*FooBar](s.c)
	b, _ := container.Resolve[*FooBar](s.c)
	s.NotSame(a, b, "the scope tag applies when no option is given")

	s.Require().NoError(s.c.Singleton((*FooBar)(nil), nil))
	a, _ = container.Resolve[*FooBar](s.c)
	b, _ = container.Resolve[*FooBar](s.c)
	s.Same(a, b, "an explicit scope beats the tag")
}

func (s *ContainerSuite) TestDefaultScopeOption() {
	c := container.New(container.WithDefaultScope(scope.PrototypeID))
	a, _ := container.Resolve[*FooBar](c)
	b, _ := container.Resolve[*FooBar](c)
	s.NotSame(a, b)
}

func (s *ContainerSuite) TestCustomScopeStoreIsABean() {
	store := scope.NewMapStore()
	s.Require().NoError(s.c.Instance((*scope.MapStore)(nil), store, container.Named("requestStore")))
	s.Require().NoError(s.c.RegisterScope("request", "requestStore"))
	s.Require().NoError(s.c.Bind((*FooBar)(nil), nil, container.InScope("request")))

	s.False(s.c.Scopes().Realized("request"))
	a, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)
	b, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)

	s.Same(a, b)
	s.True(s.c.Scopes().Realized("request"))
	s.Equal(1, store.Len())

	store.Clear()
	c, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)
	s.NotSame(a, c, "the custom store decides what is kept")
}

type loopStore struct{ *scope.MapStore }

func (s *ContainerSuite) TestScopeStoreInItsOwnScopeFails() {
	s.Require().NoError(s.c.RegisterScope("loop", "loopStore"))
	s.Require().NoError(s.c.Bind((*loopStore)(nil), nil, container.Named("loopStore"), container.InScope("loop")))
	s.Require().NoError(s.c.Bind((*FooBar)(nil), nil, container.InScope("loop")))

	done := make(chan error, 1)
	go func() {
		_, err := s.c.Get(container.TypeOf[*FooBar]())
		done <- err
	}()

	select {
	case err := <-done:
		var re *scope.RealizationError
		s.ErrorAs(err, &re)
		s.ErrorIs(err, scope.ErrReentrant)
	case <-time.After(2 * time.Second):
		s.Fail("realizing a scope whose store lives in it must not deadlock")
	}
}

// ── Constructors ──────────────────────────────────────────────────────────────

func (s *ContainerSuite) TestConstructorArgumentInjection() {
	s.declareGreeter()

	g, err := container.Resolve[Greeter](s.c)
	s.Require().NoError(err)
	eg, ok := g.(*englishGreeter)
	s.Require().True(ok)
	s.Require().NotNil(eg.Clock)
	s.Equal(42, eg.Clock.Now())
}

func (s *ContainerSuite) TestQualifiedArgumentResolvedByAlias() {
	_, err := s.c.Declare((*englishGreeter)(nil),
		definition.WithConstructor(NewEnglishGreeter, definition.Default(), definition.Qualify(0, "slowClock")))
	s.Require().NoError(err)
	s.Require().NoError(s.c.Instance((*Clock)(nil), &fixedClock{at: 1}))
	s.Require().NoError(s.c.Instance((*Clock)(nil), &fixedClock{at: 2}, container.Named("slowClock")))

	g, err := container.Resolve[*englishGreeter](s.c)
	s.Require().NoError(err)
	s.Equal(2, g.Clock.Now())
}

func (s *ContainerSuite) TestUninjectedParameterGetsZeroValue() {
	_, err := s.c.Declare((*englishGreeter)(nil),
		definition.WithConstructor(NewEnglishGreeter, definition.Default()))
	s.Require().NoError(err)

	g, err := container.Resolve[*englishGreeter](s.c)
	s.Require().NoError(err)
	s.Nil(g.Clock)
}

func (s *ContainerSuite) TestAmbiguousDefaultConstructorIsConfigurationError() {
	_, err := s.c.Declare((*FooBar)(nil),
		definition.WithConstructor(func() *FooBar { return &FooBar{id: 1} }),
		definition.WithConstructor(func() *FooBar { return &FooBar{id: 2} }))
	s.Require().NoError(err)

	_, err = container.Resolve[*FooBar](s.c)
	var amb *definition.AmbiguousConstructorError
	s.ErrorAs(err, &amb)
}

func (s *ContainerSuite) TestFactoryBinding() {
	s.Require().NoError(s.c.Instance((*Clock)(nil), &fixedClock{at: 7}))
	s.Require().NoError(s.c.Bind((*Greeter)(nil), nil, container.UsingFactory(func(r container.Resolver) (any, error) {
		clock, err := r.Get(container.TypeOf[Clock]())
		if err != nil {
			return nil, err
		}
		return NewEnglishGreeter(clock.(Clock)), nil
	})))

	g, err := container.Resolve[Greeter](s.c)
	s.Require().NoError(err)
	s.Equal(7, g.(*englishGreeter).Clock.Now())
}

// ── Errors ────────────────────────────────────────────────────────────────────

func (s *ContainerSuite) TestConstructionErrorIsLoggedAndPropagated() {
	boom := errors.New("boom")
	_, err := s.c.Declare((*FooBar)(nil),
		definition.WithConstructor(func() (*FooBar, error) { return nil, boom }))
	s.Require().NoError(err)

	v, err := s.c.Get(container.TypeOf[*FooBar]())
	s.Nil(v)
	var ce *container.ConstructionError
	s.Require().ErrorAs(err, &ce)
	s.ErrorIs(err, boom)
	s.Equal(reflect.TypeOf(&FooBar{}), ce.Type)

	entries := s.logs.FilterMessage("bean construction failed").All()
	s.Require().Len(entries, 1)
	s.Equal("fatal", entries[0].ContextMap()["severity"])
}

func (s *ContainerSuite) TestNestedFailureIsLoggedOnce() {
	boom := errors.New("boom")
	_, err := s.c.Declare((*fixedClock)(nil),
		definition.WithConstructor(func() (*fixedClock, error) { return nil, boom }))
	s.Require().NoError(err)
	s.Require().NoError(s.c.Bind((*Clock)(nil), (*fixedClock)(nil)))
	_, err = s.c.Declare((*englishGreeter)(nil),
		definition.WithConstructor(NewEnglishGreeter, definition.Default(), definition.InjectAll()))
	s.Require().NoError(err)

	_, err = container.Resolve[*englishGreeter](s.c)
	s.ErrorIs(err, boom)
	s.Len(s.logs.FilterMessage("bean construction failed").All(), 1)
}

func (s *ContainerSuite) TestPanickingConstructor() {
	_, err := s.c.Declare((*FooBar)(nil),
		definition.WithConstructor(func() *FooBar { panic("kaboom") }))
	s.Require().NoError(err)

	_, err = s.c.Get(container.TypeOf[*FooBar]())
	var ce *container.ConstructionError
	s.Require().ErrorAs(err, &ce)
	s.Contains(err.Error(), "kaboom")
}

func (s *ContainerSuite) TestCircularDependency() {
	_, err := s.c.Declare((*cycleA)(nil),
		definition.WithConstructor(func(b *cycleB) *cycleA { return &cycleA{B: b} }, definition.Default(), definition.InjectAll()))
	s.Require().NoError(err)
	_, err = s.c.Declare((*cycleB)(nil),
		definition.WithConstructor(func(a *cycleA) *cycleB { return &cycleB{A: a} }, definition.Default(), definition.InjectAll()))
	s.Require().NoError(err)

	_, err = s.c.Get(container.TypeOf[*cycleA]())
	var cycle *container.CircularDependencyError
	s.Require().ErrorAs(err, &cycle)
	s.Len(cycle.Chain, 3)
	s.Equal(cycle.Chain[0], cycle.Chain[2])
}

// ── Interception ──────────────────────────────────────────────────────────────

func (s *ContainerSuite) TestNoInterceptorFastPath() {
	s.Require().NoError(s.c.Intercept(matcher.TypeName("Other")).WithFunc("noop", func(inv *intercept.Invocation) ([]any, error) {
		return inv.Proceed()
	}))

	v, err := s.c.Get(container.TypeOf[*FooBar]())
	s.Require().NoError(err)
	s.IsType(&FooBar{}, v, "a bean without interceptors is never wrapped")
}

func (s *ContainerSuite) TestMatcherCombinationOrder() {
	cases := []struct {
		name  string
		setup func(c *container.Container, trail *[]string)
		want  []string
	}{
		{
			name: "super before sub",
			setup: func(c *container.Container, trail *[]string) {
				m2 := matcher.Any()
				m1 := matcher.TypeNamePrefix("Foo").Under(m2)
				s.Require().NoError(c.Intercept(m1).With(trailInterceptor("I1", trail)))
				s.Require().NoError(c.Intercept(m2).With(trailInterceptor("I2", trail)))
			},
			want: []string{"I2", "I1"},
		},
		{
			name: "insertion order",
			setup: func(c *container.Container, trail *[]string) {
				m1 := matcher.TypeNamePrefix("Foo")
				m2 := matcher.Any()
				s.Require().NoError(c.Intercept(m1).With(trailInterceptor("I1", trail)))
				s.Require().NoError(c.Intercept(m2).With(trailInterceptor("I2", trail)))
			},
			want: []string{"I1", "I2"},
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			c := container.New()
			var trail []string
			tc.setup(c, &trail)

			v, err := c.Get(container.TypeOf[*FooBar]())
			s.Require().NoError(err)
			proxy, ok := v.(*intercept.Proxy)
			s.Require().True(ok)

			out, err := proxy.Invoke("Name")
			s.Require().NoError(err)
			s.Equal([]any{"foobar"}, out)
			s.Equal(tc.want, trail)
		})
	}
}

func (s *ContainerSuite) TestStaleCacheSelfHeals() {
	s.Require().NoError(s.c.Prototype((*FooBar)(nil), nil))
	m := matcher.TypeName("FooBar")
	s.Require().NoError(s.c.Intercept(m).WithFunc("audit", func(inv *intercept.Invocation) ([]any, error) {
		return inv.Proceed()
	}))

	v, err := s.c.Get(container.TypeOf[*FooBar]())
	s.Require().NoError(err)
	s.IsType(&intercept.Proxy{}, v)
	s.Equal(1, s.c.MatcherCache().Len())

	s.True(s.c.UnregisterMatcher(m))
	s.False(s.c.IsRegistered(m))

	v, err = s.c.Get(container.TypeOf[*FooBar]())
	s.Require().NoError(err)
	s.IsType(&FooBar{}, v, "the unregistered matcher's interceptors are gone")
}

func (s *ContainerSuite) TestDuplicateRegistrationRejected() {
	m := matcher.Any()
	i := intercept.Func("audit", func(inv *intercept.Invocation) ([]any, error) { return inv.Proceed() })

	s.Require().NoError(s.c.Intercept(m).With(i))
	var dup *matcher.DuplicateInterceptorError
	s.ErrorAs(s.c.Intercept(m).With(i), &dup)
	s.ErrorAs(s.c.Register(intercept.Direct(i), m), &dup)
}

func (s *ContainerSuite) TestTypedProxyWrapper() {
	s.declareGreeter()
	s.Require().NoError(s.c.RegisterProxy((*Greeter)(nil), func(p *intercept.Proxy) any { return greeterProxy{p} }))
	s.Require().NoError(s.c.Intercept(matcher.TypeName("englishGreeter")).WithFunc("shout",
		func(inv *intercept.Invocation) ([]any, error) {
			out, err := inv.Proceed()
			if err != nil {
				return nil, err
			}
			return []any{strings.ToUpper(out[0].(string))}, nil
		}))

	g, err := container.Resolve[Greeter](s.c)
	s.Require().NoError(err)
	s.IsType(greeterProxy{}, g)

	got, err := g.Greet("ada")
	s.Require().NoError(err)
	s.Equal("HELLO ADA", got)
}

func (s *ContainerSuite) TestInterceptedWithoutWrapperIsTypeMismatch() {
	s.declareGreeter()
	s.Require().NoError(s.c.Intercept(matcher.Any()).WithFunc("noop", func(inv *intercept.Invocation) ([]any, error) {
		return inv.Proceed()
	}))

	_, err := container.Resolve[Greeter](s.c)
	var tm *container.TypeMismatchError
	s.ErrorAs(err, &tm)
}

func (s *ContainerSuite) TestInterceptorByReference() {
	s.Require().NoError(s.c.Bind((*auditInterceptor)(nil), nil, container.Named("audit")))
	s.Require().NoError(s.c.Intercept(matcher.Any()).WithRef("audit"))

	v, err := s.c.Get(container.TypeOf[*FooBar]())
	s.Require().NoError(err)
	proxy, ok := v.(*intercept.Proxy)
	s.Require().True(ok)
	_, err = proxy.Invoke("Name")
	s.Require().NoError(err)

	audit, err := container.ResolveRef[*auditInterceptor](s.c, container.ByAlias("audit"))
	s.Require().NoError(err, "an interceptor is not intercepted while it is being built")
	s.Equal([]string{"Name"}, audit.calls)
}

func (s *ContainerSuite) TestInterceptorReferenceMustBeAnInterceptor() {
	s.Require().NoError(s.c.Instance((*Clock)(nil), &fixedClock{}, container.Named("clock")))
	s.Require().NoError(s.c.Intercept(matcher.TypeName("FooBar")).WithRef("clock"))

	_, err := s.c.Get(container.TypeOf[*FooBar]())
	var nai *container.NotAnInterceptorError
	s.ErrorAs(err, &nai)
}

func (s *ContainerSuite) TestAfterResolvingSeesRequest() {
	s.declareGreeter()
	var reqs []*container.Request
	s.c.AfterResolving(func(req *container.Request, _ any) { reqs = append(reqs, req) })

	_, err := container.Resolve[Greeter](s.c)
	s.Require().NoError(err)
	_, err = container.Resolve[Greeter](s.c)
	s.Require().NoError(err)

	s.Require().Len(reqs, 1, "cache hits do not fire callbacks")
	req := reqs[0]
	s.Equal(reflect.TypeOf((*Greeter)(nil)).Elem(), req.Declared)
	s.Equal(reflect.TypeOf(&englishGreeter{}), req.Impl)
	s.Equal(scope.SingletonID, req.Scope.ID)
	s.Require().NotNil(req.Constructor)
	s.Len(req.Args, 1)
	s.False(req.Intercepted())
}

// ── Bookkeeping ───────────────────────────────────────────────────────────────

func (s *ContainerSuite) TestContainerIsBoundToItself() {
	v, err := s.c.Make("container")
	s.Require().NoError(err)
	s.Same(s.c, v)
	s.Same(s.c, container.MustResolve[*container.Container](s.c))
}

func (s *ContainerSuite) TestNamedBindings() {
	s.declareGreeter()
	s.Require().NoError(s.c.Bind((*Greeter)(nil), (*frenchGreeter)(nil), container.Named("fr")))

	fr, err := container.ResolveNamed[Greeter](s.c, "fr")
	s.Require().NoError(err)
	got, _ := fr.Greet("ada")
	s.Equal("bonjour ada", got)

	en, err := container.Resolve[Greeter](s.c)
	s.Require().NoError(err)
	got, _ = en.Greet("ada")
	s.Equal("hello ada", got)
}

func (s *ContainerSuite) TestBoundForgetFlush() {
	s.declareGreeter()
	ref := container.TypeOf[Greeter]()
	s.True(s.c.Bound(ref))
	s.False(s.c.Bound(container.TypeOf[*FooBar]()))

	first, err := s.c.Get(ref)
	s.Require().NoError(err)

	s.c.Forget(ref)
	s.False(s.c.Bound(ref))
	s.False(s.c.Resolved(ref))

	s.Require().NoError(s.c.Bind((*Greeter)(nil), (*englishGreeter)(nil)))
	second, err := s.c.Get(ref)
	s.Require().NoError(err)
	s.NotSame(first, second)

	s.c.Flush()
	s.False(s.c.Bound(ref))
	_, err = s.c.Make("container")
	s.NoError(err, "the container re-binds itself after Flush")
}

func (s *ContainerSuite) TestRebindEvictsCachedInstance() {
	first, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)

	s.Require().NoError(s.c.Singleton((*FooBar)(nil), nil))
	second, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)
	s.Same(first, second, "an implicit binding made explicit keeps its name")

	s.Require().NoError(s.c.Prototype((*FooBar)(nil), nil))
	s.Require().NoError(s.c.Singleton((*FooBar)(nil), nil))
	third, err := container.Resolve[*FooBar](s.c)
	s.Require().NoError(err)
	s.NotSame(first, third)
}

func (s *ContainerSuite) TestBindingsDescribeTable() {
	s.declareGreeter()
	s.Require().NoError(s.c.Alias("greeter", (*Greeter)(nil)))

	var found bool
	for _, b := range s.c.Bindings() {
		if b.Declared == reflect.TypeOf((*Greeter)(nil)).Elem() {
			found = true
			s.Equal(reflect.TypeOf(&englishGreeter{}), b.Impl)
			s.Equal(scope.SingletonID, b.Scope)
			s.Equal([]string{"greeter"}, b.Aliases)
			name, _ := s.c.Canonicalize(container.ByAlias("greeter"))
			s.Equal(name, b.ScopeName)
		}
	}
	s.True(found)
}

// ── Concurrency ───────────────────────────────────────────────────────────────

type slowBean struct{ n int }

func TestPerNameLocking_ConstructsOnce(t *testing.T) {
	t.Parallel()

	c := container.New()
	var built atomic.Int32
	_, err := c.Declare((*slowBean)(nil), definition.WithConstructor(func() *slowBean {
		built.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &slowBean{}
	}))
	require.NoError(t, err)

	const workers = 32
	got := make([]*slowBean, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := container.Resolve[*slowBean](c)
			assert.NoError(t, err)
			got[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), built.Load())
	for _, v := range got[1:] {
		assert.Same(t, got[0], v)
	}
}

func TestCoarseLocking_MayConstructTwice(t *testing.T) {
	t.Parallel()

	c := container.New(container.WithLocking(container.LockCoarse))
	var built atomic.Int32
	both := make(chan struct{})
	_, err := c.Declare((*slowBean)(nil), definition.WithConstructor(func() *slowBean {
		if built.Add(1) == 2 {
			close(both)
		}
		select {
		case <-both:
		case <-time.After(2 * time.Second):
		}
		return &slowBean{}
	}))
	require.NoError(t, err)

	got := make([]*slowBean, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := container.Resolve[*slowBean](c)
			assert.NoError(t, err)
			got[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), built.Load(), "concurrent misses both construct under coarse locking")
	assert.NotSame(t, got[0], got[1])

	// The later write won; from now on everyone sees it.
	final, err := container.Resolve[*slowBean](c)
	require.NoError(t, err)
	assert.True(t, final == got[0] || final == got[1])
	assert.Equal(t, int32(2), built.Load())
}

// callerStore keeps nothing, like a store bound to the calling goroutine
// on its first use.
type callerStore struct{}

func (callerStore) Get(scope.Name) (any, bool) { return nil, false }
func (callerStore) Put(scope.Name, any)        {}

func TestPerNameLocking_CustomScopeIsNotShared(t *testing.T) {
	t.Parallel()

	c := container.New()
	require.NoError(t, c.RegisterScope("caller", callerStore{}))
	var built atomic.Int32
	both := make(chan struct{})
	_, err := c.Declare((*slowBean)(nil), definition.WithConstructor(func() *slowBean {
		if built.Add(1) == 2 {
			close(both)
		}
		select {
		case <-both:
		case <-time.After(2 * time.Second):
		}
		return &slowBean{}
	}))
	require.NoError(t, err)
	require.NoError(t, c.Bind((*slowBean)(nil), nil, container.InScope("caller")))

	got := make([]*slowBean, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := container.Resolve[*slowBean](c)
			assert.NoError(t, err)
			got[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), built.Load(), "each caller builds its own instance")
	assert.NotSame(t, got[0], got[1])
}

func TestParseLocking(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    container.Locking
		wantErr bool
	}{
		{"", container.LockPerName, false},
		{"per-name", container.LockPerName, false},
		{"COARSE", container.LockCoarse, false},
		{"global", container.LockPerName, true},
	}
	for _, tt := range tests {
		got, err := container.ParseLocking(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-resolver/framework/app"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/definition"
	"github.com/km-arc/go-resolver/framework/intercept"
	"github.com/km-arc/go-resolver/framework/matcher"
	"github.com/km-arc/go-resolver/framework/scope"
)

// ── demo object graph ─────────────────────────────────────────────────────────

type UserRepository interface {
	Find(id int) (string, error)
}

type memoryUserRepository struct{ users map[int]string }

func NewMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: map[int]string{1: "alice", 2: "bob"}}
}

func (r *memoryUserRepository) Find(id int) (string, error) {
	if name, ok := r.users[id]; ok {
		return name, nil
	}
	return "", fmt.Errorf("user %d not found", id)
}

// userRepositoryProxy keeps intercepted repositories usable as UserRepository.
type userRepositoryProxy struct{ *intercept.Proxy }

func (p userRepositoryProxy) Find(id int) (string, error) {
	return intercept.Result[string](p.Invoke("Find", id))
}

type UserService struct {
	Users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{Users: users}
}

// ── providers ─────────────────────────────────────────────────────────────────

type AppServiceProvider struct{ container.BaseProvider }

func (p *AppServiceProvider) Register(c *container.Container) error {
	if _, err := c.Declare((*memoryUserRepository)(nil),
		definition.WithID("users.memory"),
		definition.WithTag("layer", "repository"),
		definition.WithConstructor(NewMemoryUserRepository)); err != nil {
		return err
	}
	if _, err := c.Declare((*UserService)(nil),
		definition.WithConstructor(NewUserService, definition.Default(), definition.InjectAll())); err != nil {
		return err
	}
	if err := c.Bind((*UserRepository)(nil), (*memoryUserRepository)(nil)); err != nil {
		return err
	}
	if err := c.Alias("users", (*UserRepository)(nil)); err != nil {
		return err
	}
	if err := c.RegisterProxy((*UserRepository)(nil), func(px *intercept.Proxy) any {
		return userRepositoryProxy{px}
	}); err != nil {
		return err
	}

	// Request-scoped beans share one MapStore until it is cleared.
	if err := c.RegisterScope("request", scope.NewMapStore()); err != nil {
		return err
	}
	return c.Bind((*UserService)(nil), nil, container.InScope("request"))
}

func (p *AppServiceProvider) Boot(c *container.Container) error {
	logger, err := container.Resolve[*zap.Logger](c)
	if err != nil {
		return err
	}
	timing := intercept.Func("timing", func(inv *intercept.Invocation) ([]any, error) {
		start := time.Now()
		out, err := inv.Proceed()
		logger.Info("call",
			zap.String("bean", inv.Definition().ID()),
			zap.String("method", inv.Method()),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return out, err
	})
	return c.Intercept(matcher.TagEquals("layer", "repository")).With(timing)
}

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := application.Register(&AppServiceProvider{}); err != nil {
		application.Log().Fatal("register", zap.Error(err))
	}
	if err := application.Boot(); err != nil {
		application.Log().Fatal("boot", zap.Error(err))
	}

	svc := container.MustResolve[*UserService](application.Container)
	for _, id := range []int{1, 3} {
		name, err := svc.Users.Find(id)
		application.Log().Info("lookup", zap.Int("id", id), zap.String("name", name), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := application.Run(ctx); err != nil {
		application.Log().Fatal("run", zap.Error(err))
	}
}

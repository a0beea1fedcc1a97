package app_test

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/framework/app"
	"github.com/km-arc/go-resolver/framework/config"
	"github.com/km-arc/go-resolver/framework/container"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "kernel-test", Env: "testing"},
		Resolver: config.ResolverConfig{DefaultScope: "prototype", Locking: "coarse"},
		Log:      config.LogConfig{Level: "info", Format: "json"},
	}
}

type counter struct{ n int }

func TestNewWith_AppliesResolverConfig(t *testing.T) {
	application, err := app.NewWith(testConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, container.LockCoarse, application.Locking())
	assert.True(t, application.IsTesting())

	a, err := container.Resolve[*counter](application.Container)
	require.NoError(t, err)
	b, err := container.Resolve[*counter](application.Container)
	require.NoError(t, err)
	assert.NotSame(t, a, b, "default scope comes from configuration")

	cfg, err := container.Resolve[*config.Config](application.Container)
	require.NoError(t, err)
	assert.Same(t, application.Config(), cfg)
}

func TestNewWith_RejectsBadLocking(t *testing.T) {
	cfg := testConfig()
	cfg.Resolver.Locking = "global"
	_, err := app.NewWith(cfg, nil)
	assert.Error(t, err)
}

func TestNew_LoadsEnvFiles(t *testing.T) {
	for _, k := range []string{"APP_NAME", "APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "RESOLVER_LOCKING", "RESOLVER_DEFAULT_SCOPE"} {
		t.Setenv(k, "")
	}
	t.Setenv("APP_NAME", "from-env")
	application, err := app.New("testdata/missing.env")
	require.NoError(t, err)
	assert.Equal(t, "from-env", application.Config().App.Name)
	assert.True(t, application.IsLocal())
}

func TestRun_ServesInspectUntilCancelled(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := testConfig()
	cfg.Inspect = config.InspectConfig{Enabled: true, Addr: addr}
	application, err := app.NewWith(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/bindings")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, application.Providers.Booted())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRun_WithoutInspectReturnsOnCancel(t *testing.T) {
	application, err := app.NewWith(testConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, application.Run(ctx))
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App      AppConfig
	Resolver ResolverConfig
	Log      LogConfig
	Inspect  InspectConfig
}

type AppConfig struct {
	Name string
	Env  string // local | production | testing
}

// ResolverConfig tunes the container.
type ResolverConfig struct {
	DefaultScope string // scope of bindings with no explicit scope and no tag
	Locking      string // per-name | coarse
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | console
}

// InspectConfig controls the read-only introspection server.
type InspectConfig struct {
	Enabled bool
	Addr    string
}

// Load reads the given .env files (".env" when none are given) and builds a
// Config. Process environment variables win over file values, and missing
// files are skipped: .env may not exist in production.
//
//	cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}

	src := source{}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		vals, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := src[k]; !ok {
				src[k] = v
			}
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name: src.get("APP_NAME", "go-resolver"),
			Env:  src.get("APP_ENV", "local"),
		},
		Resolver: ResolverConfig{
			DefaultScope: src.get("RESOLVER_DEFAULT_SCOPE", "singleton"),
			Locking:      strings.ToLower(src.get("RESOLVER_LOCKING", "per-name")),
		},
		Log: LogConfig{
			Level:  strings.ToLower(src.get("LOG_LEVEL", "info")),
			Format: strings.ToLower(src.get("LOG_FORMAT", "json")),
		},
		Inspect: InspectConfig{
			Enabled: src.getBool("INSPECT_ENABLED", false),
			Addr:    src.get("INSPECT_ADDR", ":8089"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the application cannot use.
func (c *Config) Validate() error {
	data := map[string]string{
		"APP_NAME":               c.App.Name,
		"APP_ENV":                c.App.Env,
		"RESOLVER_DEFAULT_SCOPE": c.Resolver.DefaultScope,
		"RESOLVER_LOCKING":       c.Resolver.Locking,
		"LOG_LEVEL":              c.Log.Level,
		"LOG_FORMAT":             c.Log.Format,
		"INSPECT_ADDR":           c.Inspect.Addr,
	}
	if err := check(data, defaultRules, validationOrder); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsLocal() bool      { return c.App.Env == "local" }
func (c *Config) IsProduction() bool { return c.App.Env == "production" }
func (c *Config) IsTesting() bool    { return c.App.Env == "testing" }

// InvalidValueError reports an unusable configuration value.
type InvalidValueError struct {
	Key    string
	Value  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("config: invalid %s %q", e.Key, e.Value)
	}
	return fmt.Sprintf("config: %s %q %s", e.Key, e.Value, e.Reason)
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return source(nil).get(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return source(nil).getBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

// source holds values read from .env files, consulted after the process
// environment.
type source map[string]string

func (s source) get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := s[key]; v != "" {
		return v
	}
	return fallback
}

func (s source) getBool(key string, fallback bool) bool {
	v := s.get(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

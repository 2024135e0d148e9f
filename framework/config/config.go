package config

import (
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/km-arc/go-autowire/framework/cache"
	"github.com/km-arc/go-autowire/framework/errors"
)

// Config is the central typed configuration struct. It is bound into
// containers as a ready instance, so its sections are not injected.
type Config struct {
	App       AppConfig       `inject:"-"`
	Log       LogConfig       `inject:"-"`
	Cache     CacheConfig     `inject:"-"`
	Container ContainerConfig `inject:"-"`
	Inspector InspectorConfig `inject:"-"`
}

type AppConfig struct {
	Name string `validate:"required"`
	Env  string `validate:"oneof=local production testing"`
}

type LogConfig struct {
	Level   string `validate:"oneof=debug info warn error"`
	Handler string `validate:"oneof=text json tint"`
}

type CacheConfig struct {
	Driver    string `validate:"oneof=null memory file sqlite redis"`
	Key       string `validate:"required"`
	Path      string `validate:"required_if=Driver file"`
	DSN       string `validate:"required_if=Driver sqlite"`
	RedisAddr string `validate:"required_if=Driver redis"`
	Size      int    `validate:"gte=0"`
	TTL       time.Duration
}

// Options converts the cache section for cache.Open.
func (c CacheConfig) Options() cache.Config {
	return cache.Config{
		Driver:    c.Driver,
		Path:      c.Path,
		DSN:       c.DSN,
		RedisAddr: c.RedisAddr,
		Size:      c.Size,
		TTL:       c.TTL,
	}
}

type ContainerConfig struct {
	SetterPrefix    string `validate:"required"`
	SetterInjection bool
}

type InspectorConfig struct {
	Addr string `validate:"omitempty,hostname_port"`
}

// Load reads the .env files (default ".env"; missing ones are skipped) and
// populates a Config from the environment. Process environment variables win
// over file values. The result is validated.
//
//	cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	src := source{file: map[string]string{}}
	for _, f := range files {
		values, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", f)
		}
		for k, v := range values {
			if _, seen := src.file[k]; !seen {
				src.file[k] = v
			}
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name: src.get("AUTOWIRE_APP_NAME", "autowire"),
			Env:  src.get("AUTOWIRE_ENV", "local"),
		},
		Log: LogConfig{
			Level:   src.get("AUTOWIRE_LOG_LEVEL", "info"),
			Handler: src.get("AUTOWIRE_LOG_HANDLER", "tint"),
		},
		Cache: CacheConfig{
			Driver:    src.get("AUTOWIRE_CACHE_DRIVER", cache.DriverNull),
			Key:       src.get("AUTOWIRE_CACHE_KEY", "autowire.services"),
			Path:      src.get("AUTOWIRE_CACHE_PATH", ""),
			DSN:       src.get("AUTOWIRE_CACHE_DSN", ""),
			RedisAddr: src.get("AUTOWIRE_CACHE_REDIS_ADDR", ""),
			Size:      src.getInt("AUTOWIRE_CACHE_SIZE", 0),
			TTL:       src.getDuration("AUTOWIRE_CACHE_TTL", 0),
		},
		Container: ContainerConfig{
			SetterPrefix:    src.get("AUTOWIRE_SETTER_PREFIX", "Set"),
			SetterInjection: src.getBool("AUTOWIRE_SETTER_INJECTION", false),
		},
		Inspector: InspectorConfig{
			Addr: src.get("AUTOWIRE_INSPECTOR_ADDR", "127.0.0.1:8080"),
		},
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its validation tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return &errors.ConfigurationError{Reason: err.Error()}
	}
	return nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	return parseInt(os.Getenv(key), defaultVal)
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return parseBool(os.Getenv(key), defaultVal)
}

// GetDuration returns a time.Duration env value such as "90s".
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	return parseDuration(os.Getenv(key), defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

// source looks values up in the environment, then in the loaded files.
type source struct {
	file map[string]string
}

func (s source) get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := s.file[key]; v != "" {
		return v
	}
	return fallback
}

func (s source) getInt(key string, fallback int) int {
	return parseInt(s.get(key, ""), fallback)
}

func (s source) getBool(key string, fallback bool) bool {
	return parseBool(s.get(key, ""), fallback)
}

func (s source) getDuration(key string, fallback time.Duration) time.Duration {
	return parseDuration(s.get(key, ""), fallback)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func parseBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func parseDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

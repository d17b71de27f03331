// internal/config/config.go
//
// Process configuration.
// Load order:
//   1. .env in the working directory (optional, development convenience).
//   2. Process environment, parsed into Config with struct tags.
//
// The zerolog global logger is configured from LOG_LEVEL / LOG_FORMAT.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Port         string `env:"PORT" envDefault:"5175"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"json"`
	AppEnv       string `env:"APP_ENV" envDefault:"development"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	DBPath       string `env:"DB_PATH" envDefault:"./data/beauquote.db"`

	UpstreamURL        string        `env:"QUOTES_UPSTREAM_URL" envDefault:"https://api.quotable.io/random"`
	UpstreamTags       string        `env:"QUOTES_TAGS" envDefault:"famous-quotes"`
	MaxAttempts        int           `env:"QUOTES_MAX_ATTEMPTS" envDefault:"10"`
	RecentLimit        int           `env:"QUOTES_RECENT_LIMIT" envDefault:"25"`
	AllowInsecureRetry bool          `env:"QUOTES_ALLOW_INSECURE_RETRY" envDefault:"false"`
	HTTPTimeout        time.Duration `env:"QUOTES_HTTP_TIMEOUT" envDefault:"8s"`
	FallbackFile       string        `env:"FALLBACK_QUOTES_FILE"`

	RedisURL string `env:"REDIS_URL"`
}

// Production reports whether APP_ENV is "production".
func (c Config) Production() bool { return c.AppEnv == "production" }

// InsecureRetry is the effective relaxed-TLS switch: never in production.
func (c Config) InsecureRetry() bool { return c.AllowInsecureRetry && !c.Production() }

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads Config from the process environment only.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.MaxAttempts <= 0 {
		return Config{}, fmt.Errorf("QUOTES_MAX_ATTEMPTS must be positive, got %d", c.MaxAttempts)
	}
	if c.RecentLimit <= 0 {
		return Config{}, fmt.Errorf("QUOTES_RECENT_LIMIT must be positive, got %d", c.RecentLimit)
	}
	return c, nil
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger.
func (c Config) SetupLogging() {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

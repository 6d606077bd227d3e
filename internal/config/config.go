// internal/config/config.go
//
// Runtime configuration loaded from the environment.
// Responsibilities:
//   - Describe every tunable in one struct with defaults.
//   - Parse it with caarlos0/env after an optional .env file.
//   - Reject values the server cannot start with.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port         string `env:"PORT" envDefault:"5175"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "console"

	StoreDriver  string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLiteDriver string `env:"SQLITE_DRIVER" envDefault:"sqlite3"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"./data/wordle.db"`
	BoltPath     string `env:"BOLT_PATH" envDefault:"./data/wordle.bolt"`

	WordsFile string `env:"WORDS_FILE"`
	WordsDir  string `env:"WORDS_DIR"`

	SessionSecret  string        `env:"SESSION_SECRET"`
	CookieName     string        `env:"COOKIE_NAME" envDefault:"wordle_session"`
	SessionDays    int           `env:"SESSION_DAYS" envDefault:"30"`
	CookieSecure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	SessionIdle    time.Duration `env:"SESSION_IDLE" envDefault:"30m"` // live sessions are dropped from memory after this
}

// Load reads .env files (when present) and parses the environment.
func Load(files ...string) (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(files...)
	return Parse()
}

// Parse parses the process environment without touching .env files.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values that have no safe fallback.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	if c.SessionDays <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_DAYS must be positive, got %d", c.SessionDays))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if c.SessionIdle <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_IDLE must be positive, got %s", c.SessionIdle))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c Config) Addr() string { return ":" + c.Port }

// SessionTTL is the lifetime of a session cookie.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionDays) * 24 * time.Hour
}

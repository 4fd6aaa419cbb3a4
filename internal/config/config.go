// Package config loads the reader's settings from
// ~/.config/mangareader/config.toml and MANGAREADER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MANGAREADER_"

// Duration is a time.Duration written as "5s" in TOML and the environment.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Policy overrides the staleness policy of one kind.
type Policy struct {
	FreshWindow Duration `toml:"fresh"`
	HardExpiry  Duration `toml:"expiry"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	DiscardSuperseded bool     `toml:"discard_superseded" env:"DISCARD_SUPERSEDED"`
	SessionTTL        Duration `toml:"session_ttl" env:"SESSION_TTL"`
	SessionCodec      string   `toml:"session_codec" env:"SESSION_CODEC"` // "json" or "msgpack"
	// Policies are keyed by kind ("homepage", "manga", ...).
	Policies map[string]Policy `toml:"policies"`
}

// PrefetchConfig holds prefetch-related configuration
type PrefetchConfig struct {
	IdleDelay     Duration `toml:"idle_delay" env:"IDLE_DELAY"`
	MaxConcurrent int      `toml:"max_concurrent" env:"MAX_CONCURRENT"`
	SaveData      bool     `toml:"save_data" env:"SAVE_DATA"`
	LikelyNext    []string `toml:"likely_next" env:"LIKELY_NEXT"`
}

// NavigationConfig holds loading overlay configuration
type NavigationConfig struct {
	MaxWait     Duration `toml:"max_wait" env:"MAX_WAIT"`
	SettleDelay Duration `toml:"settle_delay" env:"SETTLE_DELAY"`
}

// Config holds the reader configuration
type Config struct {
	DBPath       string `toml:"db" env:"DB"`
	SessionPath  string `toml:"session" env:"SESSION"` // empty keeps the session in memory
	User         string `toml:"user" env:"USER"`
	LogFile      string `toml:"log_file" env:"LOG_FILE"`
	Verbose      bool   `toml:"verbose" env:"VERBOSE"`
	OTLPEndpoint string `toml:"otlp_endpoint" env:"OTLP_ENDPOINT"`

	Cache      CacheConfig      `toml:"cache" envPrefix:"CACHE_"`
	Prefetch   PrefetchConfig   `toml:"prefetch" envPrefix:"PREFETCH_"`
	Navigation NavigationConfig `toml:"navigation" envPrefix:"NAV_"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		DBPath: "~/.local/share/mangareader/catalog.db",
		Cache: CacheConfig{
			SessionTTL:   Duration{10 * time.Minute},
			SessionCodec: "json",
		},
		Prefetch: PrefetchConfig{
			IdleDelay:     Duration{2 * time.Second},
			MaxConcurrent: 4,
		},
		Navigation: NavigationConfig{
			MaxWait: Duration{10 * time.Second},
		},
	}
}

// DefaultPath returns ~/.config/mangareader/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mangareader", "config.toml"), nil
}

// Load reads path (DefaultPath when empty) and applies the process
// environment. A missing file is not an error.
func Load(path string) (Config, error) {
	return LoadFrom(path, nil)
}

// LoadFrom is Load with an explicit environment. A nil environ reads the
// process environment.
func LoadFrom(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Default(), err
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Default(), fmt.Errorf("parse env: %w", err)
	}

	var err error
	if cfg.DBPath, err = expandPath(cfg.DBPath); err != nil {
		return Default(), fmt.Errorf("expand db: %w", err)
	}
	if cfg.SessionPath, err = expandPath(cfg.SessionPath); err != nil {
		return Default(), fmt.Errorf("expand session: %w", err)
	}
	if cfg.LogFile, err = expandPath(cfg.LogFile); err != nil {
		return Default(), fmt.Errorf("expand log_file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks the values that the defaults cannot repair.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.DBPath, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	err = validation.Errors{
		"cache.session_codec":     validation.Validate(c.Cache.SessionCodec, validation.In("", "json", "msgpack")),
		"cache.session_ttl":       validation.Validate(c.Cache.SessionTTL.Duration, validation.Min(time.Duration(0))),
		"prefetch.max_concurrent": validation.Validate(c.Prefetch.MaxConcurrent, validation.Min(0)),
		"prefetch.idle_delay":     validation.Validate(c.Prefetch.IdleDelay.Duration, validation.Min(time.Duration(0))),
		"navigation.max_wait":     validation.Validate(c.Navigation.MaxWait.Duration, validation.Min(time.Duration(0))),
		"navigation.settle_delay": validation.Validate(c.Navigation.SettleDelay.Duration, validation.Min(time.Duration(0))),
	}.Filter()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for kind, p := range c.Cache.Policies {
		if kind == "" {
			return fmt.Errorf("invalid config: policy kind cannot be empty")
		}
		if p.FreshWindow.Duration < 0 || p.HardExpiry.Duration < p.FreshWindow.Duration {
			return fmt.Errorf("invalid config: policy %q: expiry must be at least fresh", kind)
		}
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" || path == ":memory:" {
		return path, nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

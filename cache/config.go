package cache

import (
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-freshcache/pkg/clock"
)

// Config holds the staleness policies used by a Store.
type Config struct {
	// DefaultPolicy applies to kinds without an entry in Policies.
	DefaultPolicy Policy
	// Policies maps a resource kind to its staleness policy.
	Policies map[string]Policy
	// DiscardSuperseded drops fetch results that complete after the key was
	// invalidated. When false the late result is written (last fetch wins).
	DiscardSuperseded bool
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultPolicy: Policy{
			FreshWindow: 30 * time.Second,
			HardExpiry:  5 * time.Minute,
		},
		Policies: map[string]Policy{},
	}
}

// WithPolicy returns a copy of c with policy registered for kind.
func (c Config) WithPolicy(kind string, policy Policy) Config {
	policies := make(map[string]Policy, len(c.Policies)+1)
	for k, v := range c.Policies {
		policies[k] = v
	}
	policies[kind] = policy
	c.Policies = policies
	return c
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if err := c.DefaultPolicy.Validate(); err != nil {
		return &ConfigError{Field: "DefaultPolicy", Message: err.Error()}
	}

	kinds := make([]string, 0, len(c.Policies))
	for kind := range c.Policies {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		if kind == "" {
			return &ConfigError{Field: "Policies", Message: "kind cannot be empty"}
		}
		if err := c.Policies[kind].Validate(); err != nil {
			return &ConfigError{Field: "Policies[" + kind + "]", Message: err.Error()}
		}
	}
	return nil
}

// Option configures the runtime collaborators of a Store.
type Option func(*Store)

// WithClock sets the time source. Defaults to the real clock.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = clock.OrReal(c)
	}
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer sets the tracer used for fetch spans. Defaults to the global
// OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) {
		if t != nil {
			s.tracer = t
		}
	}
}

const tracerName = "github.com/goliatone/go-freshcache/cache"

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

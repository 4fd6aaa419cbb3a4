package cacheinfra

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// ErrQuotaExceeded is returned when an item is larger than the session quota.
var ErrQuotaExceeded = errors.New("session storage quota exceeded")

// MemorySessionConfig holds the configuration for the sturdyc-backed session
// tier. It mirrors the handful of sturdyc options that matter for a
// per-process session store.
type MemorySessionConfig struct {
	// Capacity defines the maximum number of items the session can hold.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of shards for concurrent access.
	// Must be greater than 0. Default: 8
	NumShards int

	// Lifetime bounds how long an item survives without being rewritten.
	// It models the lifetime of a browser session, not data freshness;
	// freshness is checked against the record's own fetch time.
	// Must be greater than 0.
	Lifetime time.Duration

	// EvictionPercentage specifies what percentage of items to evict when
	// the session reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// MaxItemBytes caps a single value, like the per-origin quota of
	// browser session storage. Zero disables the check.
	MaxItemBytes int

	// EvictionInterval sets how often expired items are swept.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultMemorySessionConfig returns a MemorySessionConfig with sensible defaults.
func DefaultMemorySessionConfig() MemorySessionConfig {
	return MemorySessionConfig{
		Capacity:           1024,
		NumShards:          8,
		Lifetime:           12 * time.Hour,
		EvictionPercentage: 10,
		MaxItemBytes:       5 << 20,
	}
}

// Validate checks if the configuration values are valid.
func (c MemorySessionConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.Lifetime <= 0 {
		return &ConfigError{Field: "Lifetime", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	if c.MaxItemBytes < 0 {
		return &ConfigError{Field: "MaxItemBytes", Message: "must be non-negative"}
	}
	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}
	return nil
}

// toSturdycOptions maps the optional settings onto sturdyc options.
// Capacity, NumShards, Lifetime and EvictionPercentage go to sturdyc.New.
func (c MemorySessionConfig) toSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// MemorySession is a session-scoped key/value store living in process
// memory. It outlives any single cache store instance, which is what lets a
// reset memory tier hydrate from it.
type MemorySession struct {
	client       *sturdyc.Client[string]
	maxItemBytes int
}

// NewMemorySession validates cfg and creates the sturdyc-backed session.
func NewMemorySession(cfg MemorySessionConfig) (*MemorySession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[string](
		cfg.Capacity,
		cfg.NumShards,
		cfg.Lifetime,
		cfg.EvictionPercentage,
		cfg.toSturdycOptions()...,
	)

	return &MemorySession{client: client, maxItemBytes: cfg.MaxItemBytes}, nil
}

// GetItem returns the stored value and whether it exists.
func (m *MemorySession) GetItem(key string) (string, bool, error) {
	value, ok := m.client.Get(key)
	return value, ok, nil
}

// SetItem stores value under key, failing with ErrQuotaExceeded when the
// value is larger than the configured quota.
func (m *MemorySession) SetItem(key, value string) error {
	if m.maxItemBytes > 0 && len(value) > m.maxItemBytes {
		return fmt.Errorf("set %q (%d bytes): %w", key, len(value), ErrQuotaExceeded)
	}
	m.client.Set(key, value)
	return nil
}

// RemoveItem deletes key.
func (m *MemorySession) RemoveItem(key string) error {
	m.client.Delete(key)
	return nil
}

// Keys returns the stored keys starting with prefix, sorted.
func (m *MemorySession) Keys(prefix string) ([]string, error) {
	var keys []string
	for _, key := range m.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes every item.
func (m *MemorySession) Clear() error {
	for _, key := range m.client.ScanKeys() {
		m.client.Delete(key)
	}
	return nil
}

// Len returns the number of stored items.
func (m *MemorySession) Len() int {
	return m.client.Size()
}

package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKeyParam marks a key that could not be built. It is always a
	// programming error.
	ErrInvalidKeyParam = errors.New("invalid cache key parameter")

	// ErrInvalidResultType is returned by the generic helpers when a cached
	// value does not have the requested type.
	ErrInvalidResultType = errors.New("cached value has unexpected type")

	// ErrNilFetcher is returned when GetOrFetch is called without a fetcher.
	ErrNilFetcher = errors.New("fetch function cannot be nil")
)

// InvalidKeyParamError describes a parameter BuildKey refused to encode.
type InvalidKeyParamError struct {
	Kind  string
	Param string
	Type  string
}

// Error implements the error interface.
func (e *InvalidKeyParamError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("invalid cache key kind %q", e.Kind)
	}
	return fmt.Sprintf("invalid cache key parameter %q for kind %q: unsupported type %s", e.Param, e.Kind, e.Type)
}

// Is lets errors.Is match ErrInvalidKeyParam.
func (e *InvalidKeyParamError) Is(target error) bool {
	return target == ErrInvalidKeyParam
}

// FetchError wraps a fetcher failure with the key it was fetching. Every
// waiter of a shared fetch receives the same *FetchError.
type FetchError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Key, e.Err)
}

// Unwrap returns the fetcher's error.
func (e *FetchError) Unwrap() error {
	return e.Err
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

package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// State is the lifecycle state of a cache entry.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Freshness classifies the age of a cached value against a Policy.
type Freshness int

const (
	// Fresh values are served without any fetch.
	Fresh Freshness = iota
	// Stale values are served immediately while a background refresh runs.
	Stale
	// Expired values must not be served.
	Expired
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "expired"
	}
}

// Policy is the staleness policy for one resource kind.
type Policy struct {
	// FreshWindow is how long after a fetch the value is served as is.
	FreshWindow time.Duration `json:"fresh_window" toml:"fresh_window"`
	// HardExpiry is how long after a fetch the value may still be served
	// stale-while-revalidate. Past it the value is never served.
	HardExpiry time.Duration `json:"hard_expiry" toml:"hard_expiry"`
}

// Classify maps an age onto Fresh, Stale or Expired.
func (p Policy) Classify(age time.Duration) Freshness {
	switch {
	case age < p.FreshWindow:
		return Fresh
	case age < p.HardExpiry:
		return Stale
	default:
		return Expired
	}
}

// Validate checks the window ordering.
func (p Policy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FreshWindow, validation.Min(time.Duration(0))),
		validation.Field(&p.HardExpiry,
			validation.Required,
			validation.Min(p.FreshWindow).Error("must not be shorter than the fresh window"),
		),
	)
}

// Entry is a point-in-time snapshot of a cache entry. Mutating it has no
// effect on the store.
type Entry struct {
	Key string
	// Value is the last successfully fetched payload. It survives a failed
	// refresh so callers can fall back to it.
	Value any
	// FetchedAt is the completion time of the last successful fetch; zero
	// when the key was never fetched or has been invalidated.
	FetchedAt time.Time
	State     State
	Err       error
	InFlight  bool
	// Generation increases on every invalidation of the key.
	Generation uint64
}

// HasValue reports whether the entry holds a successfully fetched value.
func (e Entry) HasValue() bool {
	return !e.FetchedAt.IsZero()
}

// Age returns how long ago the value was fetched, or -1 without a value.
func (e Entry) Age(now time.Time) time.Duration {
	if !e.HasValue() {
		return -1
	}
	return now.Sub(e.FetchedAt)
}

// Freshness classifies the entry at now. Entries without a value are Expired.
func (e Entry) Freshness(now time.Time, p Policy) Freshness {
	if !e.HasValue() {
		return Expired
	}
	return p.Classify(now.Sub(e.FetchedAt))
}

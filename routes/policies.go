package routes

import (
	"time"

	"github.com/goliatone/go-freshcache/cache"
)

// DefaultPolicies returns the staleness policy of every kind the reader
// serves. Chapters never change once published; notifications and the
// homepage move fastest.
func DefaultPolicies() map[string]cache.Policy {
	return map[string]cache.Policy{
		KindHomepage:      {FreshWindow: 5 * time.Second, HardExpiry: time.Minute},
		KindManga:         {FreshWindow: 30 * time.Second, HardExpiry: 5 * time.Minute},
		KindChapter:       {FreshWindow: 5 * time.Minute, HardExpiry: time.Hour},
		KindCatalog:       {FreshWindow: 30 * time.Second, HardExpiry: 5 * time.Minute},
		KindSearch:        {FreshWindow: 15 * time.Second, HardExpiry: 2 * time.Minute},
		KindRankings:      {FreshWindow: time.Minute, HardExpiry: 10 * time.Minute},
		KindFavorites:     {FreshWindow: 10 * time.Second, HardExpiry: 2 * time.Minute},
		KindNotifications: {FreshWindow: 5 * time.Second, HardExpiry: time.Minute},
	}
}

// CacheConfig returns cache.DefaultConfig with DefaultPolicies registered.
// Entries in overrides replace the defaults of their kind.
func CacheConfig(overrides map[string]cache.Policy) cache.Config {
	cfg := cache.DefaultConfig()
	for kind, p := range DefaultPolicies() {
		cfg = cfg.WithPolicy(kind, p)
	}
	for kind, p := range overrides {
		cfg = cfg.WithPolicy(kind, p)
	}
	return cfg
}

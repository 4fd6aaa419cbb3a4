package config

import (
	"github.com/goliatone/go-freshcache/cache"
	"github.com/goliatone/go-freshcache/hybridcache"
	"github.com/goliatone/go-freshcache/pkg/di"
	"github.com/goliatone/go-freshcache/routes"
)

// Container maps the configuration onto the settings of the application
// container. A policy override keeps the default of any field left unset.
func (c Config) Container() di.Config {
	defaults := routes.DefaultPolicies()
	overrides := make(map[string]cache.Policy, len(c.Cache.Policies))
	for kind, p := range c.Cache.Policies {
		base, ok := defaults[kind]
		if !ok {
			base = cache.DefaultConfig().DefaultPolicy
		}
		if p.FreshWindow.Duration > 0 {
			base.FreshWindow = p.FreshWindow.Duration
		}
		if p.HardExpiry.Duration > 0 {
			base.HardExpiry = p.HardExpiry.Duration
		}
		overrides[kind] = base
	}

	out := di.DefaultConfig()
	out.Cache = routes.CacheConfig(overrides)
	out.Cache.DiscardSuperseded = c.Cache.DiscardSuperseded

	out.Hybrid.SessionTTL = c.Cache.SessionTTL.Duration
	if c.Cache.SessionCodec == "msgpack" {
		out.Hybrid.Codec = hybridcache.MsgpackCodec{}
	}

	out.Prefetch.IdleDelay = c.Prefetch.IdleDelay.Duration
	out.Prefetch.MaxConcurrent = c.Prefetch.MaxConcurrent
	if len(c.Prefetch.LikelyNext) > 0 {
		out.Prefetch.LikelyNext = c.Prefetch.LikelyNext
	}
	out.SaveData = c.Prefetch.SaveData

	out.Navigation.MaxWait = c.Navigation.MaxWait.Duration
	out.Navigation.SettleDelay = c.Navigation.SettleDelay.Duration
	return out
}

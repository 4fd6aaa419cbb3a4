package routes

import "github.com/goliatone/go-freshcache/pkg/signals"

// AuthEventType tells sign-ins from sign-outs.
type AuthEventType int

const (
	SignedIn AuthEventType = iota
	SignedOut
)

func (t AuthEventType) String() string {
	if t == SignedIn {
		return "signed_in"
	}
	return "signed_out"
}

// AuthEvent announces a change of the signed-in user.
type AuthEvent struct {
	Type   AuthEventType
	UserID string
}

// WatchAuth invalidates the user-scoped kinds on every auth event until the
// returned function is called.
func (r *Resolver) WatchAuth(bus *signals.Bus[AuthEvent]) func() {
	return bus.Subscribe(func(ev AuthEvent) {
		favorites := r.store.InvalidateByPrefix(KindFavorites)
		notifications := r.store.InvalidateByPrefix(KindNotifications)
		r.logger.Debug("auth changed, user data invalidated",
			"event", ev.Type.String(),
			"favorites", favorites,
			"notifications", notifications,
		)
	})
}

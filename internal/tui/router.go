package tui

import (
	"context"
	"sync"

	"github.com/goliatone/go-freshcache/routes"
)

// router is the navigation.Navigator of the model. Navigate only records the
// target; the model turns it into a load command after the coordinator
// returns.
type router struct {
	ctx      context.Context
	resolver *routes.Resolver

	mu      sync.Mutex
	pending string
}

func newRouter(ctx context.Context, resolver *routes.Resolver) *router {
	return &router{ctx: ctx, resolver: resolver}
}

func (r *router) Navigate(path string) error {
	r.mu.Lock()
	r.pending = path
	r.mu.Unlock()
	return nil
}

func (r *router) Prefetch(path string) error {
	return r.resolver.Prefetch(r.ctx, path)
}

// take returns and clears the last navigation target.
func (r *router) take() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path := r.pending
	r.pending = ""
	return path, path != ""
}

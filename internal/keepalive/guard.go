package keepalive

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard fences asynchronous work. Every Start and Stop advances the
// generation; work captured under an older generation sees Valid return
// false and its context cancelled.
type Guard struct {
	mu     sync.Mutex
	gen    atomic.Uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// NewGuard returns a guard at generation zero.
func NewGuard() *Guard {
	ctx, cancel := context.WithCancel(context.Background())
	return &Guard{ctx: ctx, cancel: cancel}
}

// Next invalidates the current generation and returns the new one with a
// context that lives until the following call to Next.
func (g *Guard) Next() (uint64, context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancel()
	g.ctx, g.cancel = context.WithCancel(context.Background())
	return g.gen.Add(1), g.ctx
}

// Current returns the live generation.
func (g *Guard) Current() uint64 {
	return g.gen.Load()
}

// Valid reports whether gen is still the live generation.
func (g *Guard) Valid(gen uint64) bool {
	return g.gen.Load() == gen
}

// Context returns the context of gen. A stale generation gets an already
// cancelled context and false.
func (g *Guard) Context(gen uint64) (context.Context, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen.Load() != gen {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, false
	}
	return g.ctx, true
}

// Close cancels outstanding work for good.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen.Add(1)
	g.cancel()
}

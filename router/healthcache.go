package router

import (
	"context"
	"sync"
	"time"

	"github.com/x402core/paycore/provider"
	"github.com/x402core/paycore/types"
)

// healthCache guards a per-provider ProviderHealth map such that at most
// one refresh per provider is in flight at a time; concurrent callers for
// the same provider await the in-flight refresh instead of duplicating the
// health probe. A plain mutex-protected map plus a per-key in-flight
// channel, rather than a dedicated single-flight library, is enough for
// this access pattern.
type healthCache struct {
	mu       sync.Mutex
	values   map[string]types.ProviderHealth
	inFlight map[string]chan struct{}
	ttl      time.Duration
}

func newHealthCache(ttl time.Duration) *healthCache {
	return &healthCache{
		values:   make(map[string]types.ProviderHealth),
		inFlight: make(map[string]chan struct{}),
		ttl:      ttl,
	}
}

// get returns the cached health for p, refreshing it first if missing or
// expired. Only one goroutine performs the actual refresh per key; others
// wait for it to finish and then read the fresh value.
func (c *healthCache) get(ctx context.Context, p provider.Provider) types.ProviderHealth {
	key := p.Tag()

	c.mu.Lock()
	if h, ok := c.values[key]; ok && !h.Expired(time.Now(), c.ttl) {
		c.mu.Unlock()
		return h
	}
	if done, ok := c.inFlight[key]; ok {
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return types.ProviderHealth{Healthy: false, Message: ctx.Err().Error(), ObservedAt: time.Now()}
		}
		c.mu.Lock()
		h := c.values[key]
		c.mu.Unlock()
		return h
	}
	done := make(chan struct{})
	c.inFlight[key] = done
	c.mu.Unlock()

	h := p.Health(ctx)

	c.mu.Lock()
	c.values[key] = h
	delete(c.inFlight, key)
	close(done)
	c.mu.Unlock()

	return h
}

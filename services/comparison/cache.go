package comparison

import (
	"context"
	"sync"
	"time"
	"wtbmonitor-backend/lib/timezone"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	pairCacheSize = 64
	pairCacheTTL  = 15 * time.Minute
)

// Cache memoizes classification results. The "latest sessions" result is
// a single slot invalidated whenever a scrape completes; explicit session
// pairs are immutable once both sessions completed, so those live in a
// small TTL-bounded LRU and never need invalidation.
type Cache struct {
	svc Service

	mu        sync.Mutex
	gen       uint64
	current   *Result
	updatedAt time.Time

	pairs *expirable.LRU[string, Result]
}

func NewCache(svc Service) *Cache {
	return &Cache{
		svc:   svc,
		pairs: expirable.NewLRU[string, Result](pairCacheSize, nil, pairCacheTTL),
	}
}

// Get returns a classification for the requested sessions, serving from
// cache when possible. Requests naming only one of the two sessions mix
// an explicit id with a moving "latest" target and are computed fresh.
func (c *Cache) Get(ctx context.Context, opts Options) (Result, time.Time, error) {
	switch {
	case opts.WtbSessionID == "" && opts.InventorySessionID == "":
		return c.latest(ctx)
	case opts.WtbSessionID != "" && opts.InventorySessionID != "":
		return c.pair(ctx, opts)
	default:
		result, err := c.svc.Classify(ctx, opts)
		return result, timezone.Now(), err
	}
}

// Invalidate drops the latest-sessions slot. Called after every completed
// scrape so the next Get recomputes against the new session.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.current = nil
}

func (c *Cache) latest(ctx context.Context) (Result, time.Time, error) {
	c.mu.Lock()
	if c.current != nil {
		result, updatedAt := *c.current, c.updatedAt
		c.mu.Unlock()
		return result, updatedAt, nil
	}
	gen := c.gen
	c.mu.Unlock()

	// classification hits the database, so it runs outside the lock;
	// the generation check discards results made stale by a concurrent
	// Invalidate
	result, err := c.svc.Classify(ctx, Options{})
	if err != nil {
		return Result{}, time.Time{}, err
	}
	now := timezone.Now()

	c.mu.Lock()
	if c.gen == gen {
		copied := result
		c.current = &copied
		c.updatedAt = now
	}
	c.mu.Unlock()
	return result, now, nil
}

func (c *Cache) pair(ctx context.Context, opts Options) (Result, time.Time, error) {
	key := opts.WtbSessionID + "|" + opts.InventorySessionID
	if result, ok := c.pairs.Get(key); ok {
		return result, timezone.Now(), nil
	}

	result, err := c.svc.Classify(ctx, opts)
	if err != nil {
		return Result{}, time.Time{}, err
	}
	c.pairs.Add(key, result)
	return result, timezone.Now(), nil
}

package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SourceCache stores one entry per (source, symbol, exchange) with a TTL
// chosen per source. Entries are written only after a successful parse, so a
// flaky upstream never poisons the cache. Any cache-store error degrades:
// reads become misses, writes become no-ops.
type SourceCache struct {
	client *redis.Client
	logger *zap.Logger
	ttls   map[string]time.Duration
}

func NewSourceCache(client *redis.Client, logger *zap.Logger, ttls map[string]time.Duration) *SourceCache {
	return &SourceCache{client: client, logger: logger, ttls: ttls}
}

func (c *SourceCache) Get(ctx context.Context, source, symbol, exchange string, out interface{}) bool {
	if c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, sourceKey(source, symbol, exchange)).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("quote cache read failed", zap.String("source", source), zap.String("symbol", symbol), zap.Error(err))
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.logger.Warn("quote cache entry unreadable", zap.String("source", source), zap.String("symbol", symbol), zap.Error(err))
		return false
	}
	return true
}

func (c *SourceCache) Put(ctx context.Context, source, symbol, exchange string, v interface{}) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("quote cache entry unmarshalable", zap.String("source", source), zap.Error(err))
		return
	}
	ttl := c.ttls[source]
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := c.client.Set(ctx, sourceKey(source, symbol, exchange), raw, ttl).Err(); err != nil {
		c.logger.Warn("quote cache write failed", zap.String("source", source), zap.String("symbol", symbol), zap.Error(err))
	}
}

func sourceKey(source, symbol, exchange string) string {
	return fmt.Sprintf("quote:%s:%s:%s", source, strings.ToUpper(symbol), strings.ToUpper(exchange))
}

// gate enforces a minimum spacing between calls to one upstream. Concurrent
// callers queue behind the mutex and leave early on context cancellation.
type gate struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func newGate(interval time.Duration) *gate {
	return &gate{interval: interval}
}

func (g *gate) wait(ctx context.Context) error {
	if g.interval <= 0 {
		return nil
	}
	g.mu.Lock()
	now := time.Now()
	prev := g.last
	next := g.last.Add(g.interval)
	if next.Before(now) {
		next = now
	}
	// Reserve the slot before sleeping so concurrent callers space out
	g.last = next
	g.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		// Give the slot back unless a later caller has already moved past it
		g.mu.Lock()
		if g.last.Equal(next) {
			g.last = prev
		}
		g.mu.Unlock()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package advisor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores advisory responses between requests. Get reports a miss
// with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// cacheKey hashes the operation and its inputs into a fixed-length key.
func cacheKey(op string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(op))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(strings.TrimSpace(p)))
	}
	return "advisor:" + op + ":" + hex.EncodeToString(h.Sum(nil))
}

func (g *Gateway) cached(ctx context.Context, key string) ([]byte, bool) {
	if g.cache == nil {
		return nil, false
	}
	val, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		g.log.Warn("advisor cache read failed", "key", key, "error", err)
		return nil, false
	}
	return val, ok
}

func (g *Gateway) remember(ctx context.Context, key string, val []byte) {
	if g.cache == nil || len(val) == 0 {
		return
	}
	if err := g.cache.Set(context.WithoutCancel(ctx), key, val, g.cfg.CacheTTL); err != nil {
		g.log.Warn("advisor cache write failed", "key", key, "error", err)
	}
}

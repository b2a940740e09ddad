package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Cache is a Redis read-through cache in front of another Embedder. Redis
// failures are logged and the call falls through to the wrapped embedder.
type Cache struct {
	next   Embedder
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(next Embedder, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Cache) Model() string { return c.next.Model() }

func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "concierge:emb:" + c.next.Model() + ":" + hex.EncodeToString(sum[:])
}

func (c *Cache) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}

	out := make([][]float64, len(texts))
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("embedding cache read failed", "error", err)
		vals = nil
	}
	var missIdx []int
	for i := range texts {
		if i < len(vals) {
			if s, ok := vals[i].(string); ok {
				var v []float64
				if json.Unmarshal([]byte(s), &v) == nil {
					out[i] = v
					continue
				}
			}
		}
		missIdx = append(missIdx, i)
	}

	if len(missIdx) == 0 {
		return out, nil
	}

	missTexts := make([]string, len(missIdx))
	for j, i := range missIdx {
		missTexts[j] = texts[i]
	}
	vecs, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding cache: got %d vectors for %d inputs", len(vecs), len(missTexts))
	}

	pipe := c.rdb.Pipeline()
	for j, i := range missIdx {
		out[i] = vecs[j]
		if b, err := json.Marshal(vecs[j]); err == nil {
			pipe.Set(ctx, keys[i], b, c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("embedding cache write failed", "error", err)
	}

	c.logger.Debug("embedding cache", "hits", len(texts)-len(missIdx), "misses", len(missIdx))
	return out, nil
}

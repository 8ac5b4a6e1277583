package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const keyPrefix = "newsdigest:summary:"

// RedisSummaryCache keeps model summaries keyed by article URL.
type RedisSummaryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ ports.SummaryCache = (*RedisSummaryCache)(nil)

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, rawURL string, ttl time.Duration) (*RedisSummaryCache, *redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	return New(client, ttl), client, nil
}

// New wraps an existing client.
func New(client redis.Cmdable, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

// Get returns the cached summary for url. A miss is not an error.
func (c *RedisSummaryCache) Get(ctx context.Context, url string) (domain.SummaryResult, bool, error) {
	raw, err := c.client.Get(ctx, Key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SummaryResult{}, false, nil
	}
	if err != nil {
		return domain.SummaryResult{}, false, fmt.Errorf("redis get: %w", err)
	}

	summary, err := decode(raw)
	if err != nil {
		return domain.SummaryResult{}, false, err
	}
	return summary, true, nil
}

// Put stores a model summary. Fallback summaries are ignored.
func (c *RedisSummaryCache) Put(ctx context.Context, url string, summary domain.SummaryResult) error {
	if summary.IsFallback() || summary.Text == "" {
		return nil
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, Key(url), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Key derives a fixed-length cache key from an article URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func decode(raw []byte) (domain.SummaryResult, error) {
	var summary domain.SummaryResult
	if err := json.Unmarshal(raw, &summary); err != nil {
		return domain.SummaryResult{}, fmt.Errorf("decode cached summary: %w", err)
	}
	if summary.Text == "" || summary.IsFallback() {
		return domain.SummaryResult{}, errors.New("cached summary is not a model summary")
	}
	return summary, nil
}

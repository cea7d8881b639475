package service

import (
	"context"
	"time"

	"certverify/internal/platform/redis"
)

// CodeCache maps verification codes to certificate numbers through Redis.
// Only this immutable mapping is cached; certificate state is always read
// from the store so a revocation is visible immediately.
type CodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCodeCache(client *redis.Client) *CodeCache {
	if client == nil {
		return nil
	}
	return &CodeCache{client: client, ttl: 24 * time.Hour}
}

func codeKey(code string) string {
	return "certverify:code:" + code
}

// Lookup returns the cached certificate number for a code, or "" on a miss.
// Cache errors read as misses.
func (c *CodeCache) Lookup(ctx context.Context, code string) string {
	if c == nil {
		return ""
	}
	number, err := c.client.Get(ctx, codeKey(code)).Result()
	if err != nil {
		return ""
	}
	return number
}

// Prime stores the code to certificate number mapping, best effort.
func (c *CodeCache) Prime(ctx context.Context, code, certificateNumber string) {
	if c == nil {
		return
	}
	c.client.Set(ctx, codeKey(code), certificateNumber, c.ttl)
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// listingPayload is the cached shape of one listing page.
type listingPayload struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// Cache is a Redis read-through cache for product listings. A corrupt or
// missing entry is a miss, never an error surfaced to the page.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a listing cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func listingKey(req ListRequest) string {
	return fmt.Sprintf("catalog:list:%s:%d:%d", req.Category, req.Page, req.PerPage)
}

// Get returns the cached listing page, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, req ListRequest) ([]Product, int, bool) {
	if c == nil || c.client == nil {
		return nil, 0, false
	}
	raw, err := c.client.Get(ctx, listingKey(req)).Bytes()
	if err != nil {
		return nil, 0, false
	}
	var payload listingPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, 0, false
	}
	return payload.Products, payload.Total, true
}

// Set stores a listing page.
func (c *Cache) Set(ctx context.Context, req ListRequest, products []Product, total int) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(listingPayload{Products: products, Total: total})
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, listingKey(req), data, c.ttl).Err()
}

// Invalidate drops every cached listing page. Called after admin writes.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, "catalog:list:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return
		}
	}
}

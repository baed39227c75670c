package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps carts as Redis hashes keyed by session, product ID to
// quantity. Every write refreshes the cart TTL so active shoppers never
// lose their basket mid-session.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a cart store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// Items returns the cart contents as product ID to quantity. Fields that
// do not parse are skipped.
func (s *Store) Items(ctx context.Context, sessionID string) (map[int64]int, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart: read %s: %w", sessionID, err)
	}
	items := make(map[int64]int, len(raw))
	for field, value := range raw {
		productID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(value)
		if err != nil || qty <= 0 {
			continue
		}
		items[productID] = qty
	}
	return items, nil
}

// Add increments the quantity of one product.
func (s *Store) Add(ctx context.Context, sessionID string, productID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	key := cartKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, strconv.FormatInt(productID, 10), int64(qty))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cart: add to %s: %w", sessionID, err)
	}
	return nil
}

// SetQuantity overwrites the quantity of one product. Zero removes it.
func (s *Store) SetQuantity(ctx context.Context, sessionID string, productID int64, qty int) error {
	key := cartKey(sessionID)
	field := strconv.FormatInt(productID, 10)
	if qty <= 0 {
		if err := s.client.HDel(ctx, key, field).Err(); err != nil {
			return fmt.Errorf("cart: remove from %s: %w", sessionID, err)
		}
		return nil
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, field, qty)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cart: update %s: %w", sessionID, err)
	}
	return nil
}

// Clear drops the whole cart.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("cart: clear %s: %w", sessionID, err)
	}
	return nil
}

// Sweep reattaches the configured TTL to any cart key left without an
// expiry. Idle carts normally age out on their own; this nightly pass
// catches keys that lost their TTL.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	repaired := 0
	iter := s.client.Scan(ctx, 0, "cart:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := s.client.TTL(ctx, key).Result()
		if err != nil {
			return repaired, fmt.Errorf("cart: sweep %s: %w", key, err)
		}
		if ttl < 0 {
			if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
				return repaired, fmt.Errorf("cart: sweep %s: %w", key, err)
			}
			repaired++
		}
	}
	if err := iter.Err(); err != nil {
		return repaired, fmt.Errorf("cart: sweep scan: %w", err)
	}
	return repaired, nil
}

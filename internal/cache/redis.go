// Package cache remembers finished decks in Redis so the same document is
// not summarized and quizzed twice.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

const keyPrefix = "quizcards:deck:"

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// DeckCache stores decks keyed by document content hash.
type DeckCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewDeckCache wraps a Redis client. A zero ttl keeps entries forever.
func NewDeckCache(client redis.Cmdable, ttl time.Duration) *DeckCache {
	return &DeckCache{client: client, ttl: ttl}
}

// Key returns the Redis key for a content hash.
func Key(contentHash string) string {
	return keyPrefix + contentHash
}

// Get returns the cached deck, or nil on a miss.
func (c *DeckCache) Get(ctx context.Context, contentHash string) (*models.CachedDeck, error) {
	raw, err := c.client.Get(ctx, Key(contentHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var deck models.CachedDeck
	if err := json.Unmarshal(raw, &deck); err != nil {
		return nil, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return &deck, nil
}

// Set stores a deck.
func (c *DeckCache) Set(ctx context.Context, contentHash string, deck models.CachedDeck) error {
	raw, err := json.Marshal(deck)
	if err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}
	if err := c.client.Set(ctx, Key(contentHash), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity for the health endpoint.
func (c *DeckCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

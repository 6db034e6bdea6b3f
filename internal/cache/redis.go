// Package cache provides Redis caching for public post reads and the
// session revocation list. A Store without a client is a no-op.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PostSlugKeyPrefix = "post:slug:%s"
	RecentPostsKey    = "posts:recent"
	RevokedKeyPrefix  = "session:revoked:%s"
)

const (
	PostTTL = 30 * time.Minute
	ListTTL = 2 * time.Minute
)

// Store wraps a Redis client.
type Store struct {
	client *redis.Client
}

// New connects to Redis at addr, which may be host:port or a redis:// URL.
// An empty addr or an unreachable server yields a disabled Store.
func New(addr string) *Store {
	if addr == "" {
		log.Println("Redis not configured; caching disabled")
		return &Store{}
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Printf("Redis connection warning: invalid REDIS_URL %q: %v (continuing without cache)", addr, err)
			return &Store{}
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		_ = client.Close()
		return &Store{}
	}

	log.Println("Redis connected successfully")
	return &Store{client: client}
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Enabled reports whether a Redis client is attached.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}

func PostSlugKey(slug string) string {
	return fmt.Sprintf(PostSlugKeyPrefix, slug)
}

func RevokedKey(tokenID string) string {
	return fmt.Sprintf(RevokedKeyPrefix, tokenID)
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate
// dest, then stores dest with ttl. Cache failures never fail the read.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := s.GetJSON(ctx, key, dest)
	if err != nil {
		log.Printf("Cache read failed for %s: %v", key, err)
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := s.SetJSON(ctx, key, dest, ttl); err != nil {
		log.Printf("Cache write failed for %s: %v", key, err)
	}
	return nil
}

// Invalidate deletes the given keys.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Cache invalidation failed for %v: %v", keys, err)
	}
}

// Revoke marks a session token id as revoked for ttl.
func (s *Store) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if !s.Enabled() || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, RevokedKey(tokenID), 1, ttl).Err()
}

// IsRevoked reports whether a session token id has been revoked.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	n, err := s.client.Exists(ctx, RevokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Package redis implements the rjq store contract on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rjq-io/rjq"
)

const dialTimeout = 5 * time.Second

// Store is a Redis-backed rjq.Store. Job records and results map to plain
// keys with TTLs; the dispatch list maps to RPUSH/BLPOP, whose atomic pop
// gives each queued UUID to exactly one worker.
type Store struct {
	client *goredis.Client
}

// Ensure Store satisfies the contract.
var _ rjq.Store = (*Store)(nil)

// New connects to the Redis server at url (e.g. "redis://localhost:6379/0")
// and verifies the connection with a fail-fast ping.
func New(url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Open dials url and returns a queue bound to name. It is the convenience
// constructor for callers that do not need to share the store.
func Open(url, name string) (*rjq.Queue, error) {
	store, err := New(url)
	if err != nil {
		return nil, err
	}
	return rjq.New(store, name), nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", rjq.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *Store) Push(ctx context.Context, list, value string) error {
	if err := s.client.RPush(ctx, list, value).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", list, err)
	}
	return nil
}

func (s *Store) BlockingPop(ctx context.Context, list string, wait time.Duration) (string, error) {
	vals, err := s.client.BLPop(ctx, wait, list).Result()
	if errors.Is(err, goredis.Nil) {
		return "", rjq.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis blpop %s: %w", list, err)
	}
	// BLPOP replies [list, value].
	if len(vals) < 2 {
		return "", rjq.ErrNotFound
	}
	return vals[1], nil
}

func (s *Store) DropPrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s*: %w", prefix, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

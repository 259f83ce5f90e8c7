// Package redis provides a Redis-backed history store using go-redis.
// Records live in a sorted set scored by creation time, which makes
// time-based purging a single ZREMRANGEBYSCORE.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/invoke/history"
)

// Compile-time interface check.
var _ history.Store = (*Store)(nil)

const defaultKey = "invoke:history"

// Store persists history records in a Redis sorted set. The caller
// owns the client lifecycle; Close never closes it.
type Store struct {
	client goredis.UniversalClient
	key    string
}

// Option configures the Store.
type Option func(*Store)

// WithKey overrides the sorted set key, e.g. to separate audit trails
// of multiple embedded engines sharing one Redis.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// New creates a Redis history store on the given client.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		key:    defaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append implements history.Store.
func (s *Store) Append(ctx context.Context, r *history.Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("history/redis: marshal record: %w", err)
	}
	err = s.client.ZAdd(ctx, s.key, goredis.Z{
		Score:  float64(r.CreatedAt.UnixNano()),
		Member: string(payload),
	}).Err()
	if err != nil {
		return fmt.Errorf("history/redis: append: %w", err)
	}
	return nil
}

// List implements history.Store. Filters apply client-side after the
// sorted set scan, so filtered queries read the full set.
func (s *Store) List(ctx context.Context, f history.Filter) ([]*history.Record, error) {
	// An unfiltered limited query can be served straight from the tail
	// of the sorted set.
	stop := int64(-1)
	if f.Limit > 0 && f.Command == "" && f.Action == "" {
		stop = int64(f.Limit) - 1
	}

	members, err := s.client.ZRevRange(ctx, s.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("history/redis: list: %w", err)
	}

	var out []*history.Record
	for _, m := range members {
		var r history.Record
		if err := json.Unmarshal([]byte(m), &r); err != nil {
			return nil, fmt.Errorf("history/redis: unmarshal record: %w", err)
		}
		if f.Command != "" && r.Command != f.Command {
			continue
		}
		if f.Action != "" && r.Action != f.Action {
			continue
		}
		out = append(out, &r)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Purge implements history.Store.
func (s *Store) Purge(ctx context.Context, before time.Time) (int, error) {
	max := "(" + strconv.FormatInt(before.UnixNano(), 10)
	n, err := s.client.ZRemRangeByScore(ctx, s.key, "-inf", max).Result()
	if err != nil {
		return 0, fmt.Errorf("history/redis: purge: %w", err)
	}
	return int(n), nil
}

// Close is a no-op because the caller owns the client lifecycle.
func (s *Store) Close() error {
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"EdgePulse/internal/domain/repository"
)

const (
	keyLastNewsSpike   = "engine:last_news_ts"
	keyAutoscanEnabled = "engine:autoscan_enabled"
)

// RedisStateStore holds small shared engine state in Redis.
type RedisStateStore struct {
	client *redis.Client
}

var _ repository.StateStore = (*RedisStateStore)(nil)

// NewRedisStateStore creates the store on an existing client.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// LastNewsSpike returns the last recorded news spike instant, or the
// zero time when none was recorded.
func (s *RedisStateStore) LastNewsSpike(ctx context.Context) (time.Time, error) {
	v, err := s.client.Get(ctx, keyLastNewsSpike).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get last news spike: %w", err)
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last news spike: %w", err)
	}
	return time.Unix(sec, 0).UTC(), nil
}

func (s *RedisStateStore) SetLastNewsSpike(ctx context.Context, ts time.Time) error {
	if err := s.client.Set(ctx, keyLastNewsSpike, strconv.FormatInt(ts.Unix(), 10), 0).Err(); err != nil {
		return fmt.Errorf("set last news spike: %w", err)
	}
	return nil
}

// AutoscanEnabled reports the autoscan flag. A missing key means
// enabled.
func (s *RedisStateStore) AutoscanEnabled(ctx context.Context) (bool, error) {
	v, err := s.client.Get(ctx, keyAutoscanEnabled).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get autoscan flag: %w", err)
	}
	return v == "1", nil
}

func (s *RedisStateStore) SetAutoscanEnabled(ctx context.Context, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	if err := s.client.Set(ctx, keyAutoscanEnabled, v, 0).Err(); err != nil {
		return fmt.Errorf("set autoscan flag: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Close() error {
	return s.client.Close()
}

package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ytget/yt-downloader-bot/internal/model"
)

// RedisStore keeps the usage record as one JSON value under a key
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to url (redis://host:port or redis://:password@host:port)
func NewRedisStore(ctx context.Context, url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

// Key returns the key the record is stored under
func (s *RedisStore) Key() string {
	return s.key
}

// Load reads the record; a missing key yields an empty record
func (s *RedisStore) Load(ctx context.Context) (*model.UsageStats, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return emptyStats(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.key, err)
	}
	return decodeStats(data)
}

// Save overwrites the record
func (s *RedisStore) Save(ctx context.Context, stats *model.UsageStats) error {
	data, err := encodeStats(stats)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.key, err)
	}
	return nil
}

// Close closes the redis connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

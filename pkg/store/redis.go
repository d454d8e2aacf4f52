package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/pkg/profile"
)

// RedisStore persists per-user profiles as JSON in Redis, one key per user.
// Merge holds a per-store mutex so concurrent merges within this process
// serialize; cross-process merges are last-write-wins, the same contract as
// Set.
type RedisStore struct {
	client *redis.Client
	prefix string
	mu     sync.Mutex
}

// NewRedisStore creates and pings a Redis-backed profile store.
func NewRedisStore(ctx context.Context, addr, password, prefix string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if prefix == "" {
		prefix = "advisor:profile:"
	}

	return &RedisStore{client: rdb, prefix: prefix}, nil
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*models.ClientProfile, error) {
	if userID == "" {
		return nil, nil
	}

	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec models.ProfileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("redis get: decode: %w", err)
	}
	return &rec.Profile, nil
}

func (s *RedisStore) Set(ctx context.Context, userID string, p models.ClientProfile) error {
	if userID == "" {
		return nil
	}

	rec := models.ProfileRecord{
		Profile:   p,
		UpdatedAt: time.Now(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis set: encode: %w", err)
	}

	if err := s.client.Set(ctx, s.key(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Merge(ctx context.Context, userID string, incoming *models.ClientProfile) (models.ClientProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := profile.Empty()
	if current, err := s.Get(ctx, userID); err != nil {
		return models.ClientProfile{}, err
	} else if current != nil {
		existing = *current
	}

	merged := profile.Merge(existing, incoming)
	if userID != "" {
		if err := s.Set(ctx, userID, merged); err != nil {
			return models.ClientProfile{}, err
		}
	}
	return merged, nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

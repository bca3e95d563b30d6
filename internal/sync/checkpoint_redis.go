// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/metrics"
)

// RedisCheckpointStore keeps the checkpoint under one Redis key, so several
// replicas can share it.
type RedisCheckpointStore struct {
	client   *redis.Client
	key      string
	lookback time.Duration
}

// OpenRedisCheckpointStore connects to redisURL and pings the server.
func OpenRedisCheckpointStore(ctx context.Context, redisURL, key string, lookback time.Duration) (*RedisCheckpointStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisCheckpointStore(client, key, lookback), nil
}

// NewRedisCheckpointStore wraps an existing client.
func NewRedisCheckpointStore(client *redis.Client, key string, lookback time.Duration) *RedisCheckpointStore {
	return &RedisCheckpointStore{client: client, key: key, lookback: lookback}
}

// Read returns the stored checkpoint, or now minus the lookback.
func (s *RedisCheckpointStore) Read(ctx context.Context, now time.Time) time.Time {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			metrics.CheckpointErrors.WithLabelValues("read").Inc()
			logging.Ctx(ctx).Error().Err(err).Str("key", s.key).Msg("Failed to read checkpoint, using default lookback")
		}
		return fallbackTime(now, s.lookback)
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		metrics.CheckpointErrors.WithLabelValues("read").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("key", s.key).Msg("Stored checkpoint is malformed, using default lookback")
		return fallbackTime(now, s.lookback)
	}
	return t.UTC()
}

// Write stores t as RFC 3339 with no expiry.
func (s *RedisCheckpointStore) Write(ctx context.Context, t time.Time) {
	if err := s.client.Set(ctx, s.key, t.UTC().Format(time.RFC3339), 0).Err(); err != nil {
		metrics.CheckpointErrors.WithLabelValues("write").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("key", s.key).Msg("Failed to write checkpoint")
	}
}

// Close closes the Redis client.
func (s *RedisCheckpointStore) Close() error {
	return s.client.Close()
}

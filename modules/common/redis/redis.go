package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"brandreel-server/modules/common/config"
	"brandreel-server/modules/common/model"
)

const (
	// VideoQueueKey is the list the async video worker pops from.
	VideoQueueKey = "video:jobs:queue"

	jobKeyPrefix    = "video:job:"
	cancelKeyPrefix = "video:cancel:"

	jobTTL    = 24 * time.Hour
	cancelTTL = 2 * time.Hour
)

// Connect creates a Redis client and pings it. Returns nil when Redis is
// disabled or unreachable so callers can run without it.
func Connect(cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled {
		zap.L().Info("[Redis] disabled by config")
		return nil
	}

	zap.L().Info("[Redis] connecting", zap.String("addr", cfg.GetRedisAddr()))

	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		zap.L().Warn("[Redis] ping failed", zap.Error(err))
		_ = rdb.Close()
		return nil
	}

	return rdb
}

// Store wraps the Redis operations the video module needs.
type Store struct {
	rdb *redis.Client
}

// NewStore returns nil for a nil client so callers can check once.
func NewStore(rdb *redis.Client) *Store {
	if rdb == nil {
		return nil
	}
	return &Store{rdb: rdb}
}

// Enqueue pushes a job id and returns the queue length afterwards.
func (s *Store) Enqueue(ctx context.Context, jobID string) (int64, error) {
	if err := s.rdb.LPush(ctx, VideoQueueKey, jobID).Err(); err != nil {
		return 0, fmt.Errorf("redis LPUSH failed: %w", err)
	}
	n, err := s.rdb.LLen(ctx, VideoQueueKey).Result()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Dequeue blocks up to timeout for the next job id. Returns "" on timeout.
func (s *Store) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := s.rdb.BRPop(ctx, timeout, VideoQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis BRPOP failed: %w", err)
	}
	// result[0] is the key, result[1] the job id
	if len(result) < 2 {
		return "", nil
	}
	return result[1], nil
}

// SaveJob caches the job document for status lookups.
func (s *Store) SaveJob(ctx context.Context, job *model.VideoJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := s.rdb.Set(ctx, jobKeyPrefix+job.JobID, data, jobTTL).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

// GetJob returns (nil, nil) when the job is not cached.
func (s *Store) GetJob(ctx context.Context, jobID string) (*model.VideoJob, error) {
	data, err := s.rdb.Get(ctx, jobKeyPrefix+jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}
	var job model.VideoJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse cached job: %w", err)
	}
	return &job, nil
}

// SetJobCancelled raises the cancel flag the worker polls.
func (s *Store) SetJobCancelled(ctx context.Context, jobID string) error {
	if err := s.rdb.Set(ctx, cancelKeyPrefix+jobID, "1", cancelTTL).Err(); err != nil {
		return fmt.Errorf("failed to set cancel flag: %w", err)
	}
	return nil
}

// IsJobCancelled treats Redis errors as "not cancelled".
func (s *Store) IsJobCancelled(ctx context.Context, jobID string) bool {
	n, err := s.rdb.Exists(ctx, cancelKeyPrefix+jobID).Result()
	if err != nil {
		zap.L().Warn("[Redis] cancel flag lookup failed", zap.String("job_id", jobID), zap.Error(err))
		return false
	}
	return n > 0
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.rdb.Close()
}

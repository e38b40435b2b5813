package eventstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/blockforge/pkg/events"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string // host:port
	Password string
	DB       int
}

// RedisStore is a Redis-backed event log for multi-instance
// deployments. Each workspace's log is one list, appended with RPUSH so
// LRANGE returns fire order.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(workspaceID string) string {
	return "blockforge:events:" + workspaceID
}

func (s *RedisStore) Append(ctx context.Context, workspaceID string, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := s.client.RPush(ctx, redisKey(workspaceID), data).Err(); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, workspaceID string) ([]events.Envelope, error) {
	lines, err := s.client.LRange(ctx, redisKey(workspaceID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	out := make([]events.Envelope, 0, len(lines))
	for _, line := range lines {
		var env events.Envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			return nil, fmt.Errorf("parse event: %w", err)
		}
		out = append(out, env)
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, workspaceID string) error {
	if err := s.client.Del(ctx, redisKey(workspaceID)).Err(); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}

func (s *RedisStore) Close(ctx context.Context) error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)

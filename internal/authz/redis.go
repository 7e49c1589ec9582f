package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/PedroBarbosa73/chat-app/internal/models"
)

// RedisStore keeps each session's authorized set in a Redis set keyed by
// session ID, with a TTL matching the session lifetime so stale grants
// expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(redisURL string, sessionTTL time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: sessionTTL}, nil
}

func sessionKey(sessionID string) string {
	return "authz:session:" + sessionID
}

func (s *RedisStore) Grant(ctx context.Context, sessionID string, roomID uuid.UUID) error {
	key := sessionKey(sessionID)

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, roomID.String())
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("grant room access: %w", err)
	}
	return nil
}

func (s *RedisStore) Authorized(ctx context.Context, sessionID string, room *models.Room) (bool, error) {
	if room == nil {
		return false, nil
	}
	// Live room state wins: public rooms need no grant.
	if !room.IsPrivate {
		return true, nil
	}

	ok, err := s.client.SIsMember(ctx, sessionKey(sessionID), room.ID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check room access: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Revoke(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("revoke session grants: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

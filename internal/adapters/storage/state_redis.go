package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crowd-monitor/internal/domain"
)

const stateKey = "crowd-monitor:last_message_id"

// redisCmds is the slice of the redis client the store needs.
type redisCmds interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStateStore keeps the live message id in Redis. Used when several
// deployments share storage that is not a local disk.
type RedisStateStore struct {
	client redisCmds
}

var _ domain.MessageStateStore = (*RedisStateStore)(nil)

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// LastMessageID reads the stored id; a missing key means no message yet.
func (s *RedisStateStore) LastMessageID() (string, error) {
	ctx, cancel := s.connCtx()
	defer cancel()
	id, err := s.client.Get(ctx, stateKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read message id: %w", err)
	}
	return id, nil
}

// SaveMessageID overwrites the stored id.
func (s *RedisStateStore) SaveMessageID(id string) error {
	ctx, cancel := s.connCtx()
	defer cancel()
	if err := s.client.Set(ctx, stateKey, id, 0).Err(); err != nil {
		return fmt.Errorf("write message id: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
)

const keyPrefix = "session:"

// RedisStore хранит сессии в Redis в виде JSON
// Истечение по простою обеспечивает TTL ключа, он продлевается при каждом Save
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.SessionState, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}

	var sess domain.SessionState
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *domain.SessionState) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, sess.ID, err)
	}
	if err := s.client.Set(ctx, keyPrefix+sess.ID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save %s: %w", sess.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

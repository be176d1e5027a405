package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps refresh sessions as JSON under "<prefix><refreshToken>". The
// key expires with the session, so Redis does the cleanup.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

// Create refuses to overwrite a live session with the same token. An already
// expired session is not stored at all.
func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.prefix+s.RefreshToken, b, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

func decodeSession(b []byte, err error) (*Session, error) {
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	return decodeSession(r.client.Get(ctx, r.prefix+refresh).Bytes())
}

// Take reads and deletes in one GETDEL, so a refresh token is redeemed at most once
// across all instances.
func (r *RedisRepository) Take(ctx context.Context, refresh string) (*Session, error) {
	return decodeSession(r.client.GetDel(ctx, r.prefix+refresh).Bytes())
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	return r.client.Del(ctx, r.prefix+refresh).Err()
}

package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist records revoked access tokens until they would have expired anyway.
// With a Redis client the entries are shared between instances; without one they
// live in process.
type Blacklist struct {
	client *redis.Client

	mu    sync.Mutex
	local map[string]time.Time
	now   func() time.Time
}

func NewBlacklist(c *redis.Client) *Blacklist {
	return &Blacklist{client: c, local: map[string]time.Time{}, now: time.Now}
}

func blacklistKey(token string) string { return "blacklist:access:" + token }

// Add revokes token for ttl. Non-positive ttl is a no-op.
func (b *Blacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if b.client != nil {
		return b.client.Set(ctx, blacklistKey(token), "1", ttl).Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.local[token] = b.now().Add(ttl)
	return nil
}

// IsRevoked reports whether token was blacklisted and has not aged out.
func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if b.client != nil {
		n, err := b.client.Exists(ctx, blacklistKey(token)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.local[token]
	if !ok {
		return false, nil
	}
	if !b.now().Before(exp) {
		delete(b.local, token)
		return false, nil
	}
	return true, nil
}

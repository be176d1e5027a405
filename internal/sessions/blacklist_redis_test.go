package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklist_RedisEntriesAgeOut(t *testing.T) {
	m := mr.RunT(t)
	bl := NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "signed-out", 2*time.Second))
	require.NoError(t, bl.Add(ctx, "already-expired", -time.Second))
	assert.True(t, m.Exists(blacklistKey("signed-out")))
	assert.False(t, m.Exists(blacklistKey("already-expired")))
	assert.Equal(t, 2*time.Second, m.TTL(blacklistKey("signed-out")))

	revoked, err := bl.IsRevoked(ctx, "signed-out")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = bl.IsRevoked(ctx, "never-seen")
	require.NoError(t, err)
	assert.False(t, revoked)

	m.FastForward(3 * time.Second)
	revoked, err = bl.IsRevoked(ctx, "signed-out")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklist_RedisDownIsAnError(t *testing.T) {
	m := mr.RunT(t)
	bl := NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1}))
	m.Close()

	_, err := bl.IsRevoked(context.Background(), "tok")
	assert.Error(t, err)
}

func TestBlacklist_InProcess(t *testing.T) {
	bl := NewBlacklist(nil)
	now := time.Now()
	bl.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "tok", time.Second))
	require.NoError(t, bl.Add(ctx, "ignored", 0))

	ok, err := bl.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = bl.IsRevoked(ctx, "ignored")
	require.False(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = bl.IsRevoked(ctx, "tok")
	require.False(t, ok)
}

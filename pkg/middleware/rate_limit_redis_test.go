package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisLimited(t *testing.T, scope string, rps float64, burst int, window time.Duration) (*gin.Engine, *mr.Miniredis) {
	t.Helper()
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return limitedEngine(RedisRateLimitMiddleware(client, scope, rps, burst, window)), m
}

func TestRedisRateLimitMiddleware_WindowAllowance(t *testing.T) {
	r, m := redisLimited(t, "login", 0, 2, time.Minute)

	assert.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
	assert.Equal(t, http.StatusCreated, hit(r, "/comments", ""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/comments", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	keys := m.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "rl:login:ip:")
	assert.Equal(t, 61*time.Second, m.TTL(keys[0]))
}

func TestRedisRateLimitMiddleware_ResetsWhenCounterExpires(t *testing.T) {
	r, m := redisLimited(t, "comments", 0, 1, 10*time.Second)

	require.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/comments", ""))

	m.FastForward(11 * time.Second)
	require.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
}

func TestRedisRateLimitMiddleware_ScopesAreIndependent(t *testing.T) {
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	r := gin.New()
	r.POST("/login", RedisRateLimitMiddleware(client, "login", 0, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/comments", RedisRateLimitMiddleware(client, "comment", 0, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusOK, hit(r, "/login", ""))
	assert.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/login", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/comments", ""))
}

func TestRedisRateLimitMiddleware_RedisDown(t *testing.T) {
	m := mr.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	defer client.Close()
	r := limitedEngine(RedisRateLimitMiddleware(client, "comment", 1, 1, time.Second))

	m.Close()
	assert.Equal(t, http.StatusInternalServerError, hit(r, "/comments", ""))
}

func TestRedisRateLimitMiddleware_NilClientFallsBack(t *testing.T) {
	r := limitedEngine(RedisRateLimitMiddleware(nil, "comment", 0.1, 1, time.Second))

	assert.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/comments", ""))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gantzhq/gantz/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(r http.Handler, path, remote string) int {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func limitedEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.POST("/comments", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	r := limitedEngine(RateLimitMiddleware(10, 2))

	assert.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
	assert.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksThenRefills(t *testing.T) {
	rejected := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory"))
	r := limitedEngine(RateLimitMiddleware(2, 1))

	require.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/comments", ""))
	require.Equal(t, rejected+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory")))

	// one token comes back after 1/rps
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
}

func TestRateLimitMiddleware_KeysByClient(t *testing.T) {
	r := limitedEngine(RateLimitMiddleware(0.1, 1))

	assert.Equal(t, http.StatusCreated, hit(r, "/comments", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/comments", "10.0.0.1:1001"))
	assert.Equal(t, http.StatusCreated, hit(r, "/comments", "10.0.0.2:1000"))
}

func TestRateLimitMiddleware_UsesSubjectWhenPresent(t *testing.T) {
	asUser := func(c *gin.Context) {
		c.Set(ClaimsKey, map[string]interface{}{"sub": "user-123"})
		c.Next()
	}
	r := limitedEngine(asUser, RateLimitMiddleware(0.1, 1))

	// a signed-in subject is one bucket whatever address it comes from
	assert.Equal(t, http.StatusCreated, hit(r, "/comments", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/comments", "10.0.0.2:1000"))
}

func TestRateLimitMiddleware_InstancesAreIndependent(t *testing.T) {
	login := RateLimitMiddleware(0.1, 1)
	comment := RateLimitMiddleware(0.1, 1)
	r := gin.New()
	r.POST("/login", login, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/comments", comment, func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusOK, hit(r, "/login", ""))
	assert.Equal(t, http.StatusCreated, hit(r, "/comments", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/login", ""))
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gantzhq/gantz/internal/gate"
	"github.com/gantzhq/gantz/internal/identity"
	"github.com/gantzhq/gantz/internal/service"
	"github.com/gantzhq/gantz/internal/storage"
	"github.com/gantzhq/gantz/internal/store"
	"github.com/gantzhq/gantz/pkg/logger"
	"github.com/gantzhq/gantz/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const viewerKey = "viewer"

// statusOf maps an error to the response status. Unclassified errors come from the
// store or blob storage and are reported as a bad gateway.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, store.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials), errors.Is(err, identity.ErrInvalidRefresh):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNoObject):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrObjectExists):
		return http.StatusConflict
	case errors.Is(err, identity.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// fail writes {"error": msg} with the message of err unchanged.
func fail(c *gin.Context, err error) {
	code := statusOf(err)
	if code >= 500 {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// ResolveViewer attaches the caller's viewer to the context. It never rejects a
// request: without a usable token the viewer is anonymous.
func ResolveViewer(g *gate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := middleware.BearerToken(c)
		c.Set(viewerKey, g.Resolve(c.Request.Context(), token))
		c.Next()
	}
}

func viewerOf(c *gin.Context) gate.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if vv, ok := v.(gate.Viewer); ok {
			return vv
		}
	}
	return gate.Viewer{}
}

// chain returns guards followed by h in a fresh slice.
func chain(guards []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, h)
}

package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gantzhq/gantz/internal/service"
	"github.com/gin-gonic/gin"
)

// HomeHandler serves the landing view.
func HomeHandler(h *service.Home) gin.HandlerFunc {
	return func(c *gin.Context) {
		l, err := h.Landing(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"landing": l, "viewer": viewerOf(c)})
	}
}

// BlobReader reads stored objects back.
type BlobReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// MediaHandler streams uploaded objects, for deployments whose blob store has no
// public endpoint of its own.
func MediaHandler(blobs BlobReader, cacheSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if key == "" || strings.Contains(key, "..") {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		rc, contentType, err := blobs.Get(c.Request.Context(), key)
		if err != nil {
			fail(c, err)
			return
		}
		defer rc.Close()
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if cacheSeconds > 0 {
			c.Header("Cache-Control", "public, max-age="+strconv.Itoa(cacheSeconds))
		}
		c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
	}
}

// Package upload places user-supplied files in blob storage under unique keys and
// reports where viewers can load them from.
package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gantzhq/gantz/pkg/logger"
	"github.com/gantzhq/gantz/pkg/metrics"
)

const (
	DefaultPrefix = "images"
	fallbackExt   = "jpg"
)

// BlobStore is the object storage the helper writes to.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// File is one user-selected file.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Helper uploads files. Now and Random are replaceable in tests.
type Helper struct {
	store  BlobStore
	prefix string

	Now    func() time.Time
	Random func() (string, error)
}

func NewHelper(store BlobStore, prefix string) *Helper {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Helper{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		Now:    time.Now,
		Random: randomHex,
	}
}

// Upload stores f under a fresh key and returns its public URL. A storage failure is
// returned to the caller; nothing is recorded anywhere else.
func (h *Helper) Upload(ctx context.Context, f File) (string, error) {
	suffix, err := h.Random()
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return "", fmt.Errorf("upload: random key: %w", err)
	}
	key := h.prefix + "/" + KeyFor(f.Name, h.Now(), suffix)
	if err := h.store.Put(ctx, key, f.Body, f.Size, f.ContentType); err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		logger.Warnf("upload %s failed: %v", key, err)
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}
	metrics.Uploads.WithLabelValues("ok").Inc()
	logger.Debugf("uploaded %s (%d bytes)", key, f.Size)
	return h.store.PublicURL(key), nil
}

// KeyFor builds "<epoch-millis>-<random>.<ext>". The extension is the file name's
// own, case included, and falls back to jpg when the name has none.
func KeyFor(name string, now time.Time, random string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		ext = fallbackExt
	}
	return fmt.Sprintf("%d-%s.%s", now.UnixMilli(), random, ext)
}

func randomHex() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

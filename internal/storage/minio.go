package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gantzhq/gantz/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// ErrObjectExists is returned by Put when the key is already taken; objects are never overwritten.
	ErrObjectExists = errors.New("object already exists")
	ErrNoObject     = errors.New("object not found")
)

// MinIOStorage is a thin wrapper around the minio client used by services.
type MinIOStorage struct {
	client       *minio.Client
	bucket       string
	publicBase   string
	cacheSeconds int
}

// NewMinIOStorage creates a new MinIO storage client and ensures the bucket exists.
func NewMinIOStorage(cfg config.MinIOConfig, cacheSeconds int) (*MinIOStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStorage{
		client:       mc,
		bucket:       cfg.Bucket,
		publicBase:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		cacheSeconds: cacheSeconds,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// Put stores data under key. An existing object under the same key is left alone and
// ErrObjectExists is returned.
func (s *MinIOStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err == nil {
		return ErrObjectExists
	} else if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("minio stat %s: %w", key, err)
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if s.cacheSeconds > 0 {
		opts.CacheControl = fmt.Sprintf("max-age=%d", s.cacheSeconds)
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, opts); err != nil {
		return fmt.Errorf("minio put %s: %w", key, err)
	}
	return nil
}

// Get returns a ReadCloser for the stored object and its content type.
func (s *MinIOStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	// perform a stat to ensure object exists
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrNoObject
		}
		return nil, "", err
	}
	return obj, info.ContentType, nil
}

// PublicURL is the address viewers load the object from.
func (s *MinIOStorage) PublicURL(key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + key
	}
	return s.client.EndpointURL().String() + "/" + s.bucket + "/" + key
}

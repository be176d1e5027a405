package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/internal/store"
	"github.com/gantzhq/gantz/internal/upload"
	"github.com/gantzhq/gantz/pkg/logger"
)

type Photos struct {
	repo     store.PhotoRepository
	uploader Uploader
}

func NewPhotos(repo store.PhotoRepository, up Uploader) *Photos {
	return &Photos{repo: repo, uploader: up}
}

// Range lists photos newest first, rows r.From..r.To inclusive.
func (s *Photos) Range(ctx context.Context, r store.Range) ([]models.Photo, error) {
	return s.repo.List(ctx, store.Query{Order: store.Desc, Range: &r})
}

// Recent lists photos created at or after since, newest first.
func (s *Photos) Recent(ctx context.Context, since time.Time, limit int) ([]models.Photo, error) {
	return s.repo.List(ctx, store.Query{Since: &since, Order: store.Desc, Limit: limit})
}

func (s *Photos) Get(ctx context.Context, id string) (*models.Photo, error) {
	return s.repo.Get(ctx, id)
}

// Create uploads the file and then records the photo. A failed upload leaves no record.
func (s *Photos) Create(ctx context.Context, f *upload.File, caption string, takenAt *time.Time) (*models.Photo, error) {
	if f == nil || f.Body == nil {
		return nil, invalid("a photo file is required")
	}
	url, err := s.uploader.Upload(ctx, *f)
	if err != nil {
		return nil, err
	}
	p := &models.Photo{ImageURL: url, Caption: models.OptionalText(caption), TakenAt: takenAt}
	if err := s.repo.Insert(ctx, p); err != nil {
		// the object stays behind; nothing references it
		logger.Warnf("photo insert failed after uploading %s: %v", url, err)
		return nil, fmt.Errorf("record photo: %w", err)
	}
	return p, nil
}

// UpdateCaption replaces the caption; a blank caption clears it.
func (s *Photos) UpdateCaption(ctx context.Context, id, caption string) (*models.Photo, error) {
	if err := s.repo.Update(ctx, id, store.PhotoFields{Caption: models.OptionalText(caption)}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Photos) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

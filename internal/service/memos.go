package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/internal/store"
	"github.com/gantzhq/gantz/pkg/logger"
)

type Memos struct {
	memos    store.MemoRepository
	comments store.CommentRepository
	cascade  bool
}

// NewMemos returns the memo board. With cascade set, deleting a memo deletes its
// comments first.
func NewMemos(memos store.MemoRepository, comments store.CommentRepository, cascade bool) *Memos {
	return &Memos{memos: memos, comments: comments, cascade: cascade}
}

// List returns memos newest first; r may be nil for all of them.
func (s *Memos) List(ctx context.Context, r *store.Range) ([]models.Memo, error) {
	return s.memos.List(ctx, store.Query{Order: store.Desc, Range: r})
}

func (s *Memos) Recent(ctx context.Context, since time.Time, limit int) ([]models.Memo, error) {
	return s.memos.List(ctx, store.Query{Since: &since, Order: store.Desc, Limit: limit})
}

func (s *Memos) Get(ctx context.Context, id string) (*models.Memo, error) {
	return s.memos.Get(ctx, id)
}

func (s *Memos) Create(ctx context.Context, title, body string) (*models.Memo, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, invalid("title and body are required")
	}
	m := &models.Memo{Title: title, Body: body}
	if err := s.memos.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Memos) Delete(ctx context.Context, id string) error {
	if _, err := s.memos.Get(ctx, id); err != nil {
		return err
	}
	if s.cascade {
		n, err := s.comments.DeleteByMemo(ctx, id)
		if err != nil {
			return fmt.Errorf("delete comments of memo %s: %w", id, err)
		}
		if n > 0 {
			logger.Debugf("deleted %d comments with memo %s", n, id)
		}
	}
	return s.memos.Delete(ctx, id)
}

// Comments lists a memo's comments oldest first.
func (s *Memos) Comments(ctx context.Context, memoID string) ([]models.Comment, error) {
	if _, err := s.memos.Get(ctx, memoID); err != nil {
		return nil, err
	}
	return s.comments.ListByMemo(ctx, memoID)
}

// PostComment adds a comment anyone may write. A blank nickname is stored as none.
func (s *Memos) PostComment(ctx context.Context, memoID, nickname, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("comment body is required")
	}
	if _, err := s.memos.Get(ctx, memoID); err != nil {
		return nil, err
	}
	c := &models.Comment{MemoID: memoID, Nickname: models.OptionalText(nickname), Body: body}
	if err := s.comments.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Memos) DeleteComment(ctx context.Context, id string) error {
	return s.comments.Delete(ctx, id)
}

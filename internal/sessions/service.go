package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Service issues and redeems refresh sessions. A nil session with a nil error means
// the token is unknown or expired.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service { return &Service{repo: r, now: time.Now} }

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *Service) create(ctx context.Context, sub string, signedIn time.Time, ttl time.Duration) (*Session, error) {
	token, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if signedIn.IsZero() {
		signedIn = now
	}
	sess := &Session{
		RefreshToken: token,
		Sub:          sub,
		SignedInAt:   signedIn,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// CreateSession stores a new refresh session and returns the refresh token.
func (s *Service) CreateSession(ctx context.Context, sub string, ttl time.Duration) (string, error) {
	sess, err := s.create(ctx, sub, time.Time{}, ttl)
	if err != nil {
		return "", err
	}
	return sess.RefreshToken, nil
}

func (s *Service) live(sess *Session) bool {
	return sess != nil && s.now().UTC().Before(sess.ExpiresAt)
}

// ValidateRefresh returns the session if the refresh token is known and not expired.
// Expired sessions are removed on sight.
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if !s.live(sess) {
		_ = s.repo.DeleteByRefresh(ctx, refresh)
		return nil, nil
	}
	return sess, nil
}

// Rotate redeems refresh and issues a replacement for the same subject. Each
// refresh token works once; a replayed one yields nil.
func (s *Service) Rotate(ctx context.Context, refresh string, ttl time.Duration) (*Session, error) {
	old, err := s.repo.Take(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if !s.live(old) {
		return nil, nil
	}
	return s.create(ctx, old.Sub, old.SignedInAt, ttl)
}

func (s *Service) DeleteRefresh(ctx context.Context, refresh string) error {
	return s.repo.DeleteByRefresh(ctx, refresh)
}

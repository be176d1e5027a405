// Package identity signs viewers in against the external provider and issues the
// site's own access and refresh tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gantzhq/gantz/internal/config"
	"github.com/gantzhq/gantz/internal/gate"
	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/internal/oidc"
	"github.com/gantzhq/gantz/internal/sessions"
	"github.com/gantzhq/gantz/internal/tokens"
	"github.com/gantzhq/gantz/pkg/logger"
	"github.com/gantzhq/gantz/pkg/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrRevoked            = errors.New("access token revoked")
	ErrNotConfigured      = errors.New("identity provider not configured")
)

// UserStore is the part of the users service sign-in needs.
type UserStore interface {
	UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error)
	GetBySub(ctx context.Context, sub string) (*models.User, error)
}

// Grant is the outcome of a sign-in or refresh.
type Grant struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	ExpiresIn    int          `json:"expiresIn"`
	User         *models.User `json:"user"`
}

type Service struct {
	kc         config.KeycloakConfig
	http       *http.Client
	users      UserStore
	sessions   *sessions.Service
	issuer     *tokens.Issuer
	blacklist  *sessions.Blacklist
	refreshTTL time.Duration

	mu         sync.Mutex
	idVerifier middleware.Verifier
	discover   func(ctx context.Context) (middleware.Verifier, error)
	notify     func(gate.Event)
}

func NewService(kc config.KeycloakConfig, jwt config.JWTConfig, u UserStore, s *sessions.Service, bl *sessions.Blacklist) *Service {
	svc := &Service{
		kc:         kc,
		http:       &http.Client{Timeout: 10 * time.Second},
		users:      u,
		sessions:   s,
		issuer:     tokens.NewIssuer(jwt.Secret, jwt.AccessTokenTTL),
		blacklist:  bl,
		refreshTTL: jwt.RefreshTokenTTL,
		notify:     func(gate.Event) {},
	}
	if svc.refreshTTL <= 0 {
		svc.refreshTTL = 7 * 24 * time.Hour
	}
	svc.discover = func(ctx context.Context) (middleware.Verifier, error) {
		return oidc.Discover(ctx, kc.Issuer(), kc.ClientID, kc.AllowInsecureToken)
	}
	return svc
}

// OnChange routes auth-state changes to fn, typically a gate's Notify.
func (s *Service) OnChange(fn func(gate.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

func (s *Service) emit(e gate.Event) {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	fn(e)
}

// Verifier validates the access tokens this service issues.
func (s *Service) Verifier() middleware.Verifier { return s.issuer }

// Revocations reports signed-out access tokens.
func (s *Service) Revocations() middleware.Revocations { return s.blacklist }

func (s *Service) grant(u *models.User, refresh string) (*Grant, error) {
	access, err := s.issuer.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &Grant{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.issuer.TTL().Seconds()),
		User:         u,
	}, nil
}

// SignIn exchanges an email and password for site tokens.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Grant, error) {
	if s.kc.URL == "" || s.kc.Realm == "" {
		return nil, ErrNotConfigured
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	tr, err := s.requestPasswordToken(ctx, email, password)
	if err != nil {
		var pe *providerError
		if errors.As(err, &pe) && (pe.Status == http.StatusUnauthorized || pe.Status == http.StatusBadRequest) {
			logger.Debugf("sign-in rejected by provider: %v", err)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("password grant: %w", err)
	}
	claims, err := s.verifyIDToken(ctx, tr.IDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	u, err := s.users.UpsertFromClaims(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("user upsert: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("id token has no subject")
	}
	refresh, err := s.sessions.CreateSession(ctx, u.Sub, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	g, err := s.grant(u, refresh)
	if err != nil {
		return nil, err
	}
	logger.Infof("signed in %s", u.Email)
	s.emit(gate.Event{Kind: gate.SignedIn, Email: u.Email})
	return g, nil
}

// Refresh redeems a refresh token for a new access token and a replacement refresh
// token. The old refresh token stops working.
func (s *Service) Refresh(ctx context.Context, refresh string) (*Grant, error) {
	sess, err := s.sessions.Rotate(ctx, refresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh: %w", err)
	}
	if sess == nil {
		return nil, ErrInvalidRefresh
	}
	u, err := s.users.GetBySub(ctx, sess.Sub)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if u == nil {
		_ = s.sessions.DeleteRefresh(ctx, sess.RefreshToken)
		return nil, ErrInvalidRefresh
	}
	g, err := s.grant(u, sess.RefreshToken)
	if err != nil {
		return nil, err
	}
	s.emit(gate.Event{Kind: gate.Refreshed, Email: u.Email})
	return g, nil
}

// SignOut ends the refresh session and revokes the access token for the rest of its
// lifetime. Either token may be empty.
func (s *Service) SignOut(ctx context.Context, access, refresh string) error {
	var email string
	if access != "" {
		if c, err := s.issuer.Parse(access); err == nil {
			email = c.Email
			if err := s.blacklist.Add(ctx, access, c.Remaining(time.Now())); err != nil {
				return fmt.Errorf("blacklist access token: %w", err)
			}
		}
	}
	if refresh != "" {
		if err := s.sessions.DeleteRefresh(ctx, refresh); err != nil {
			return fmt.Errorf("remove session: %w", err)
		}
	}
	s.emit(gate.Event{Kind: gate.SignedOut, Email: email})
	return nil
}

// CurrentUser returns the user behind a valid access token, or nil when the subject
// is unknown.
func (s *Service) CurrentUser(ctx context.Context, access string) (*models.User, error) {
	revoked, err := s.blacklist.IsRevoked(ctx, access)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}
	c, err := s.issuer.Parse(access)
	if err != nil {
		return nil, err
	}
	return s.users.GetBySub(ctx, c.Subject)
}

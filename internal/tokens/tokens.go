package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gantzhq/gantz/internal/models"
	"github.com/gantzhq/gantz/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSubject = errors.New("token has no subject")

// Claims carried by an access token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer signs and parses HS256 access tokens with one shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue creates a signed JWT access token for the user.
func (i *Issuer) Issue(u *models.User) (string, error) {
	now := i.now()
	claims := Claims{
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse validates signature and expiry. Only HS256 is accepted.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}
	return &c, nil
}

// Remaining is how long the token stays valid; zero once expired.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

type claimsToken struct{ c *Claims }

func (t claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.c)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Verify lets the issuer guard routes through middleware.AuthMiddleware.
func (i *Issuer) Verify(_ context.Context, raw string) (middleware.Token, error) {
	c, err := i.Parse(raw)
	if err != nil {
		return nil, err
	}
	return claimsToken{c: c}, nil
}

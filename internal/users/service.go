package users

import (
	"context"
	"strings"

	"github.com/gantzhq/gantz/internal/models"
)

// Service keeps the local copy of provider accounts.
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// claimString returns the first non-blank string claim among keys.
func claimString(claims map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := claims[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// UpsertFromClaims records the account behind an id token. Claims without a subject
// yield a nil user. The email is kept as the provider sent it: admin checks compare
// it exactly.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub := claimString(claims, "sub")
	if sub == "" {
		return nil, nil
	}
	name := claimString(claims, "name", "preferred_username")
	if name == "" {
		name = strings.TrimSpace(claimString(claims, "given_name") + " " + claimString(claims, "family_name"))
	}
	return s.repo.UpsertBySub(ctx, &models.User{
		Sub:     sub,
		Email:   claimString(claims, "email"),
		Name:    name,
		Picture: claimString(claims, "picture"),
	})
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

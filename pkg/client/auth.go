package client

import (
	"context"
	"net/http"

	"github.com/gantzhq/gantz/internal/gate"
	"github.com/gantzhq/gantz/internal/identity"
	"github.com/gantzhq/gantz/internal/models"
)

// Login signs in and keeps the access token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*identity.Grant, error) {
	var g identity.Grant
	in := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", in, &g); err != nil {
		return nil, err
	}
	c.SetToken(g.AccessToken)
	return &g, nil
}

func (c *Client) Refresh(ctx context.Context, refresh string) (*identity.Grant, error) {
	var g identity.Grant
	if err := c.call(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refresh}, &g); err != nil {
		return nil, err
	}
	c.SetToken(g.AccessToken)
	return &g, nil
}

// Logout revokes the current token and drops it locally even if the server call fails.
func (c *Client) Logout(ctx context.Context, refresh string) error {
	err := c.call(ctx, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": refresh}, nil)
	c.SetToken("")
	return err
}

// Me reports who the server thinks the caller is.
func (c *Client) Me(ctx context.Context) (gate.Viewer, error) {
	return c.viewer(ctx, c.Token())
}

func (c *Client) viewer(ctx context.Context, token string) (gate.Viewer, error) {
	var v gate.Viewer
	err := c.send(ctx, request{method: http.MethodGet, path: "/api/v1/me", token: token}, &v)
	return v, err
}

// CurrentUser lets a gate.Gate resolve viewers through the server. An anonymous
// answer yields a nil user.
func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	v, err := c.viewer(ctx, token)
	if err != nil {
		return nil, err
	}
	if v.Anonymous() {
		return nil, nil
	}
	return &models.User{Email: v.Email}, nil
}

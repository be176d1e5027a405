package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}

// providerError is a non-200 answer of the token endpoint.
type providerError struct {
	Status int
	Body   string
}

func (e *providerError) Error() string {
	return fmt.Sprintf("token endpoint returned %d: %s", e.Status, e.Body)
}

// requestPasswordToken runs the resource-owner password grant against the realm.
func (s *Service) requestPasswordToken(ctx context.Context, username, password string) (*tokenResponse, error) {
	tokenURL := s.kc.Issuer() + "/protocol/openid-connect/token"
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", s.kc.ClientID)
	if s.kc.ClientSecret != "" {
		form.Set("client_secret", s.kc.ClientSecret)
	}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("scope", "openid email profile")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &providerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	if tr.IDToken == "" {
		return nil, fmt.Errorf("token endpoint returned no id_token")
	}
	return &tr, nil
}

// verifyIDToken checks the id token and returns its claims. The verifier is discovered
// on first use and kept.
func (s *Service) verifyIDToken(ctx context.Context, idToken string) (map[string]interface{}, error) {
	s.mu.Lock()
	ver := s.idVerifier
	s.mu.Unlock()
	if ver == nil {
		v, err := s.discover(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.idVerifier = v
		s.mu.Unlock()
		ver = v
	}
	tok, err := ver.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, err
	}
	return claims, nil
}

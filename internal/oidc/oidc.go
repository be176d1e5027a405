package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gantzhq/gantz/pkg/logger"
	"github.com/gantzhq/gantz/pkg/middleware"
)

// Verifier checks id tokens against the provider's published keys.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider at issuer and verifies tokens minted for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// Verify verifies the provided raw ID token and returns a middleware.Token
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// Discover returns the provider verifier, or the insecure one when discovery fails and
// allowInsecure is set.
func Discover(ctx context.Context, issuer, clientID string, allowInsecure bool) (middleware.Verifier, error) {
	v, err := NewVerifier(ctx, issuer, clientID)
	if err == nil {
		return v, nil
	}
	if allowInsecure {
		logger.Warnf("oidc discovery for %s failed (%v); id tokens will NOT be signature-checked", issuer, err)
		return NewInsecureVerifier(clientID), nil
	}
	return nil, err
}

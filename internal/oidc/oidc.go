// Package oidc verifies Keycloak ID tokens presented at admin login.
package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/lieuxdexception/site/pkg/middleware"
)

// Verifier checks ID tokens against the realm's published keys.
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// IssuerURL returns the realm issuer for a Keycloak base URL.
func IssuerURL(baseURL, realm string) string {
	return fmt.Sprintf("%s/realms/%s", baseURL, realm)
}

// NewVerifier discovers the provider at issuer. Discovery is a network call,
// so main only attempts it when Keycloak is configured.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery %s: %w", issuer, err)
	}
	return &Verifier{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	tok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Endpoint returns the token endpoint advertised by the provider.
func (v *Verifier) Endpoint() string {
	return v.provider.Endpoint().TokenURL
}

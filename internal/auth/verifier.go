package auth

import (
	"context"
	"errors"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Identity is the authenticated caller as asserted by the identity provider.
type Identity struct {
	UID   string // provider subject, stable and externally issued
	Email string
}

// TokenVerifier validates a bearer ID token and resolves the caller identity.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// Config holds the identity provider settings.
//
// For Firebase projects the issuer is https://securetoken.google.com/<project-id>
// and the audience is the project ID.
type Config struct {
	IssuerURL string `env:"AUTH_ISSUER_URL,required"`
	Audience  string `env:"AUTH_AUDIENCE,required"`
}

// OIDCVerifier validates ID tokens against the provider's published JWKS.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider configuration and prepares a
// verifier. Discovery requires network access to the issuer.
func NewOIDCVerifier(ctx context.Context, cfg Config) (*OIDCVerifier, error) {
	if cfg.IssuerURL == "" {
		return nil, ErrMissingIssuer
	}
	if cfg.Audience == "" {
		return nil, ErrMissingAudience
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Join(ErrProviderDiscovery, err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.Audience}),
	}, nil
}

// Verify checks the token signature, issuer, audience and expiry, and
// returns the subject identity. Any verification failure maps to
// ErrInvalidToken.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, ErrMissingToken
	}

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	// Email is optional; a token without it still identifies the subject.
	_ = token.Claims(&claims)

	return &Identity{
		UID:   token.Subject,
		Email: claims.Email,
	}, nil
}

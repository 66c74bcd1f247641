package auth

import "errors"

var (
	ErrMissingToken      = errors.New("missing bearer token")
	ErrInvalidToken      = errors.New("invalid identity token")
	ErrMissingIssuer     = errors.New("identity provider issuer URL is required")
	ErrMissingAudience   = errors.New("identity provider audience is required")
	ErrProviderDiscovery = errors.New("identity provider discovery failed")
)

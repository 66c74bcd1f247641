// Package auth verifies bearer ID tokens issued by an external identity
// provider. The application never issues credentials of its own: trust
// derives entirely from OIDC verification against the provider's JWKS.
package auth

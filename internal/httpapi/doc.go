// Package httpapi exposes the service over HTTP: billing endpoints for
// checkout, webhooks, portal and repair, premium-gated flashcard
// endpoints, and the explanation endpoint that also serves anonymous
// callers. All dependencies are injected through Deps.
package httpapi

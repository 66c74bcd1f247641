package entitlement

import "errors"

var (
	ErrRecordNotFound       = errors.New("entitlement record not found")
	ErrCustomerNotFound     = errors.New("payment customer not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	ErrMissingUserMetadata     = errors.New("no user_id in session metadata")
	ErrNoSubscriptionInSession = errors.New("checkout session carries no subscription")

	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrProviderError    = errors.New("payment provider error")

	// Provider configuration errors
	ErrMissingAPIKey        = errors.New("payment provider API key is required")
	ErrMissingWebhookSecret = errors.New("payment provider webhook secret is required")
)

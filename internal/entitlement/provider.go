package entitlement

import "context"

// PaymentProvider is the contract the reconciliation logic needs from the
// external payment processor. The implementation handles provider-specific
// quirks internally; the service only sees normalized types.
type PaymentProvider interface {
	// CreateCheckoutSession creates a hosted checkout session for the
	// fixed monthly premium product, tagging both the session and the
	// resulting subscription with the user ID in processor metadata.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// GetCheckoutSession retrieves a previously created session. Customer
	// and subscription fields carry references only; status and period end
	// require a follow-up GetSubscription call.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// GetSubscription retrieves a subscription by processor reference.
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)

	// FindSubscription returns the customer's active subscription,
	// falling back to the most recent one of any status. Returns
	// ErrSubscriptionNotFound when the customer has none.
	FindSubscription(ctx context.Context, customerID string) (*Subscription, error)

	// FindCustomerByEmail resolves a processor customer reference by
	// account email. Returns ErrCustomerNotFound when no customer matches.
	FindCustomerByEmail(ctx context.Context, email string) (string, error)

	// ParseWebhookEvent verifies the event signature and normalizes the
	// payload. Unrecognized event types yield EventIgnored, not an error.
	ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)

	// CreatePortalSession returns a pre-authenticated billing portal URL
	// for the customer.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// CheckoutRequest contains the data needed to start a hosted checkout.
type CheckoutRequest struct {
	UserID     string
	Email      string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a normalized view of a hosted checkout session.
type CheckoutSession struct {
	ID             string
	URL            string
	UserID         string // from session metadata
	CustomerID     string
	SubscriptionID string
}

// Subscription is a normalized view of a processor subscription object.
type Subscription struct {
	ID               string
	CustomerID       string
	Status           Status // processor status verbatim
	CurrentPeriodEnd int64
}

// EventType is the normalized webhook event type.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout_completed"
	EventSubscriptionUpdated EventType = "subscription_updated"
	EventSubscriptionDeleted EventType = "subscription_deleted"
	EventIgnored             EventType = "ignored"
)

// WebhookEvent is a signature-verified, normalized processor event.
type WebhookEvent struct {
	Type          EventType
	ProviderEvent string // original provider event name

	UserID           string // from event metadata, checkout events only
	CustomerID       string
	SubscriptionID   string
	Status           Status
	CurrentPeriodEnd int64
	Created          int64 // provider event timestamp, epoch seconds
}

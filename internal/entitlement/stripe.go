package entitlement

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// metadataUserID is the metadata key carrying our user identity on both
// the checkout session and the subscription object. It is the sole join
// key back to the entitlement record, so it must be set on both: checkout
// events expose the session, later lifecycle events expose the subscription.
const metadataUserID = "user_id"

// StripeConfig holds the Stripe credentials and the fixed premium product.
type StripeConfig struct {
	SecretKey          string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret      string `env:"STRIPE_WEBHOOK_SECRET,required"`
	ProductName        string `env:"STRIPE_PRODUCT_NAME" envDefault:"Cardbuddy Premium"`
	ProductDescription string `env:"STRIPE_PRODUCT_DESCRIPTION" envDefault:"Monthly subscription to Cardbuddy premium features"`
	UnitAmount         int64  `env:"STRIPE_UNIT_AMOUNT" envDefault:"499"` // smallest currency unit
	Currency           string `env:"STRIPE_CURRENCY" envDefault:"usd"`
}

// StripeProvider implements PaymentProvider on the official Stripe SDK.
type StripeProvider struct {
	sc  *client.API
	cfg StripeConfig
}

// NewStripeProvider creates a Stripe-backed payment provider.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	return &StripeProvider{
		sc:  client.New(cfg.SecretKey, nil),
		cfg: cfg,
	}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.cfg.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(p.cfg.ProductName),
					Description: stripe.String(p.cfg.ProductDescription),
				},
				UnitAmount: stripe.Int64(p.cfg.UnitAmount),
				Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
					Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		CustomerEmail:     stripe.String(req.Email),
		ClientReferenceID: stripe.String(req.UserID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataUserID: req.UserID},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataUserID, req.UserID)

	sess, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, err)
	}

	return normalizeSession(sess), nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := p.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, err)
	}

	return normalizeSession(sess), nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.sc.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, err)
	}

	return normalizeSubscription(sub), nil
}

// FindSubscription prefers an active subscription and falls back to the
// most recent one of any status, mirroring the manual-repair semantics.
func (p *StripeProvider) FindSubscription(ctx context.Context, customerID string) (*Subscription, error) {
	if sub, ok, err := p.listOne(ctx, customerID, string(stripe.SubscriptionStatusActive)); err != nil {
		return nil, err
	} else if ok {
		return sub, nil
	}

	if sub, ok, err := p.listOne(ctx, customerID, ""); err != nil {
		return nil, err
	} else if ok {
		return sub, nil
	}

	return nil, ErrSubscriptionNotFound
}

func (p *StripeProvider) listOne(ctx context.Context, customerID, status string) (*Subscription, bool, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
	}
	if status != "" {
		params.Status = stripe.String(status)
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := p.sc.Subscriptions.List(params)
	for iter.Next() {
		return normalizeSubscription(iter.Subscription()), true, nil
	}
	if err := iter.Err(); err != nil {
		return nil, false, errors.Join(ErrProviderError, err)
	}
	return nil, false, nil
}

func (p *StripeProvider) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := p.sc.Customers.List(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", errors.Join(ErrProviderError, err)
	}
	return "", ErrCustomerNotFound
}

func (p *StripeProvider) ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.cfg.WebhookSecret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	ev := &WebhookEvent{
		ProviderEvent: string(event.Type),
		Created:       event.Created,
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		ev.Type = EventCheckoutCompleted
		ev.UserID = sess.Metadata[metadataUserID]
		if sess.Customer != nil {
			ev.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			ev.SubscriptionID = sess.Subscription.ID
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		ev.Type = EventSubscriptionUpdated
		if event.Type == "customer.subscription.deleted" {
			ev.Type = EventSubscriptionDeleted
		}
		ev.SubscriptionID = sub.ID
		ev.Status = Status(sub.Status)
		ev.CurrentPeriodEnd = sub.CurrentPeriodEnd
		if sub.Customer != nil {
			ev.CustomerID = sub.Customer.ID
		}

	default:
		ev.Type = EventIgnored
	}

	return ev, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := p.sc.BillingPortalSessions.New(params)
	if err != nil {
		return "", errors.Join(ErrProviderError, err)
	}
	return sess.URL, nil
}

func normalizeSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:     sess.ID,
		URL:    sess.URL,
		UserID: sess.Metadata[metadataUserID],
	}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
	}
	return out
}

func normalizeSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:               sub.ID,
		Status:           Status(sub.Status),
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	return out
}

var _ PaymentProvider = (*StripeProvider)(nil)

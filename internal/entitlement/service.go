package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cardbuddy/cardbuddy/pkg/logger"
)

// Config holds the service-level settings.
type Config struct {
	// Domain is the externally visible base URL, used to build the
	// checkout success/cancel and portal return URLs.
	Domain string `env:"APP_DOMAIN" envDefault:"http://localhost:8080"`
	// PlanLabel is the informational plan name stamped on new states.
	PlanLabel string `env:"PREMIUM_PLAN_LABEL" envDefault:"premium"`
}

// Service reconciles payment-processor subscription state into entitlement
// records and answers the premium-access question.
//
// Three independent writers converge on the same guarded write: the
// post-checkout redirect, asynchronous webhooks, and manual repair. Each
// path is best-effort; a failure in one never blocks the others.
type Service struct {
	store    Store
	provider PaymentProvider
	cfg      Config
	log      *slog.Logger
}

// NewService creates the subscription gatekeeper service.
// Panics on nil dependencies to fail fast during initialization.
func NewService(store Store, provider PaymentProvider, cfg Config, log *slog.Logger) *Service {
	if store == nil {
		panic("entitlement: Store is required")
	}
	if provider == nil {
		panic("entitlement: PaymentProvider is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    store,
		provider: provider,
		cfg:      cfg,
		log:      log,
	}
}

// IsPremium reports whether the user currently holds an active premium
// entitlement. A missing record means no entitlement; any store failure is
// surfaced so the caller can decide the fallback.
func (s *Service) IsPremium(ctx context.Context, userID string) (bool, error) {
	rec, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.IsPremium(), nil
}

// Record returns the user's entitlement record.
func (s *Service) Record(ctx context.Context, userID string) (*Record, error) {
	return s.store.Get(ctx, userID)
}

// StartCheckout creates a hosted checkout session for the fixed monthly
// premium product. One-shot: processor rejections surface to the caller
// without retries.
func (s *Service) StartCheckout(ctx context.Context, userID, email string) (*CheckoutSession, error) {
	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		UserID: userID,
		Email:  email,
		// The processor substitutes the session reference into the
		// placeholder when redirecting the browser back.
		SuccessURL: s.cfg.Domain + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.Domain + "/cancel",
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout session created",
		logger.UserID(userID), slog.String("session_id", sess.ID))
	return sess, nil
}

// ConfirmCheckout reconciles entitlement state from the post-checkout
// redirect. It is a backup for the checkout webhook: whichever lands first
// wins, the other becomes a no-op or an equal overwrite.
func (s *Service) ConfirmCheckout(ctx context.Context, sessionID string) error {
	sess, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.UserID == "" {
		return ErrMissingUserMetadata
	}
	if sess.SubscriptionID == "" {
		return ErrNoSubscriptionInSession
	}

	sub, err := s.provider.GetSubscription(ctx, sess.SubscriptionID)
	if err != nil {
		return err
	}

	customerID := sess.CustomerID
	if customerID == "" {
		customerID = sub.CustomerID
	}

	return s.applyState(ctx, sess.UserID, State{
		Status:           sub.Status,
		Plan:             s.cfg.PlanLabel,
		SubscriptionID:   sub.ID,
		CustomerID:       customerID,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		EventTime:        time.Now().Unix(),
	})
}

// HandleWebhook verifies and applies a processor event. Lookup failures
// are returned to the caller so the processor's retry policy can redeliver;
// no record is ever created for an unknown customer or subscription.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseWebhookEvent(payload, signature)
	if err != nil {
		return err
	}

	switch ev.Type {
	case EventCheckoutCompleted:
		return s.reconcileCheckout(ctx, ev)

	case EventSubscriptionUpdated:
		rec, err := s.store.FindByCustomerID(ctx, ev.CustomerID)
		if err != nil {
			return err
		}
		return s.applyState(ctx, rec.UserID, State{
			Status:           ev.Status,
			Plan:             s.planOf(rec),
			SubscriptionID:   ev.SubscriptionID,
			CustomerID:       ev.CustomerID,
			CurrentPeriodEnd: ev.CurrentPeriodEnd,
			EventTime:        ev.Created,
		})

	case EventSubscriptionDeleted:
		rec, err := s.store.FindBySubscriptionID(ctx, ev.SubscriptionID)
		if err != nil {
			return err
		}
		return s.applyState(ctx, rec.UserID, State{
			Status:           StatusCancelled,
			Plan:             s.planOf(rec),
			SubscriptionID:   ev.SubscriptionID,
			CustomerID:       rec.PaymentCustomerID,
			CurrentPeriodEnd: ev.CurrentPeriodEnd,
			EventTime:        ev.Created,
		})

	default:
		s.log.DebugContext(ctx, "webhook event ignored",
			slog.String("event", ev.ProviderEvent))
		return nil
	}
}

// reconcileCheckout handles the asynchronous checkout-completed event.
// The event exposes references only, so status and period end come from a
// follow-up subscription read.
func (s *Service) reconcileCheckout(ctx context.Context, ev *WebhookEvent) error {
	if ev.UserID == "" {
		return ErrMissingUserMetadata
	}
	if ev.SubscriptionID == "" {
		return ErrNoSubscriptionInSession
	}

	sub, err := s.provider.GetSubscription(ctx, ev.SubscriptionID)
	if err != nil {
		return err
	}

	customerID := ev.CustomerID
	if customerID == "" {
		customerID = sub.CustomerID
	}

	return s.applyState(ctx, ev.UserID, State{
		Status:           sub.Status,
		Plan:             s.cfg.PlanLabel,
		SubscriptionID:   sub.ID,
		CustomerID:       customerID,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		EventTime:        ev.Created,
	})
}

// RepairResult reports what manual reconciliation re-derived from the
// processor's live subscription list.
type RepairResult struct {
	CustomerID     string
	SubscriptionID string
	Status         Status
}

// Repair re-derives the user's entitlement from the processor. When no
// customer reference is on file the processor is searched by account
// email; if neither yields a customer or subscription, nothing is written.
func (s *Service) Repair(ctx context.Context, userID, email string) (*RepairResult, error) {
	var customerID string

	rec, err := s.store.Get(ctx, userID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}
	if rec != nil {
		customerID = rec.PaymentCustomerID
	}

	if customerID == "" {
		if email == "" {
			return nil, ErrCustomerNotFound
		}
		customerID, err = s.provider.FindCustomerByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		s.log.InfoContext(ctx, "payment customer found by email",
			logger.UserID(userID), slog.String("customer_id", customerID))
	}

	sub, err := s.provider.FindSubscription(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := s.applyState(ctx, userID, State{
		Status:           sub.Status,
		Plan:             s.cfg.PlanLabel,
		SubscriptionID:   sub.ID,
		CustomerID:       customerID,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		EventTime:        time.Now().Unix(),
		Email:            email,
	}); err != nil {
		return nil, err
	}

	return &RepairResult{
		CustomerID:     customerID,
		SubscriptionID: sub.ID,
		Status:         sub.Status,
	}, nil
}

// PortalLink returns a pre-authenticated billing portal URL for the user.
func (s *Service) PortalLink(ctx context.Context, userID string) (string, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if rec.PaymentCustomerID == "" {
		return "", ErrCustomerNotFound
	}
	return s.provider.CreatePortalSession(ctx, rec.PaymentCustomerID, s.cfg.Domain+"/dashboard")
}

func (s *Service) planOf(rec *Record) string {
	if rec != nil && rec.Subscription != nil && rec.Subscription.Plan != "" {
		return rec.Subscription.Plan
	}
	return s.cfg.PlanLabel
}

func (s *Service) applyState(ctx context.Context, userID string, st State) error {
	applied, err := s.store.ApplyState(ctx, userID, st)
	if err != nil {
		return err
	}
	if !applied {
		s.log.InfoContext(ctx, "stale subscription state dropped",
			logger.UserID(userID),
			slog.String("status", string(st.Status)),
			slog.Int64("event_time", st.EventTime))
	}
	return nil
}

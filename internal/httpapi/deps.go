package httpapi

import (
	"context"
	"log/slog"

	"github.com/cardbuddy/cardbuddy/internal/auth"
	"github.com/cardbuddy/cardbuddy/internal/entitlement"
	"github.com/cardbuddy/cardbuddy/internal/flashcard"
)

// EntitlementService is the subscription surface the handlers depend on.
type EntitlementService interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
	Record(ctx context.Context, userID string) (*entitlement.Record, error)
	StartCheckout(ctx context.Context, userID, email string) (*entitlement.CheckoutSession, error)
	ConfirmCheckout(ctx context.Context, sessionID string) error
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Repair(ctx context.Context, userID, email string) (*entitlement.RepairResult, error)
	PortalLink(ctx context.Context, userID string) (string, error)
}

// FlashcardService is the study-feature surface the handlers depend on.
type FlashcardService interface {
	List(ctx context.Context, userID string) ([]flashcard.Card, error)
	Create(ctx context.Context, userID, front, back, category string) (*flashcard.Card, error)
	GenerateFromText(ctx context.Context, userID, text string) ([]flashcard.Card, error)
	Explain(ctx context.Context, userID, text, source string) (string, int, error)
}

// Config holds the HTTP-layer settings.
type Config struct {
	// FailOpen controls the premium gate when the entitlement store is
	// unreachable: false (default) denies with 503, true lets the request
	// through and logs loudly. Must be switched on deliberately.
	FailOpen bool `env:"ENTITLEMENT_FAIL_OPEN" envDefault:"false"`

	// DashboardURL is where checkout redirects land.
	DashboardURL string `env:"DASHBOARD_URL" envDefault:"/dashboard"`

	// WebhookMaxBytes caps webhook payload size.
	WebhookMaxBytes int64 `env:"WEBHOOK_MAX_BYTES" envDefault:"65536"`
}

// Deps wires the router's collaborators. All services are injected; the
// package keeps no globals.
type Deps struct {
	Entitlement EntitlementService
	Flashcards  FlashcardService
	Verifier    auth.TokenVerifier
	// ReadyProbes back the readiness endpoint.
	ReadyProbes []func(context.Context) error
	Config      Config
	Log         *slog.Logger
}

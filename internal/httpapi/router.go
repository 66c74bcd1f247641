package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cardbuddy/cardbuddy/pkg/httpserver"
)

// NewRouter assembles the full HTTP surface. The middleware chain is
// explicit per route group: public endpoints carry none, account endpoints
// require a verified bearer token, study endpoints additionally require an
// active subscription.
func NewRouter(d Deps) http.Handler {
	if d.Entitlement == nil {
		panic("httpapi: EntitlementService is required")
	}
	if d.Flashcards == nil {
		panic("httpapi: FlashcardService is required")
	}
	if d.Verifier == nil {
		panic("httpapi: TokenVerifier is required")
	}
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}

	h := &handlers{
		entitlement: d.Entitlement,
		flashcards:  d.Flashcards,
		cfg:         d.Config,
		log:         d.Log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Log))

	r.Get("/healthz", httpserver.HealthCheckHandler(d.Log))
	r.Get("/readyz", httpserver.HealthCheckHandler(d.Log, d.ReadyProbes...))

	// Public billing endpoints. The checkout session id in the redirect is
	// the capability; webhook authenticity comes from the signature.
	r.Get("/success", h.checkoutSuccess)
	r.Get("/cancel", h.checkoutCancel)
	r.Post("/webhook", h.webhook)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(d.Verifier, d.Log))

		r.Post("/create-checkout-session", h.createCheckoutSession)
		r.Post("/create-portal-session", h.createPortalSession)
		r.Get("/api/user/subscription", h.subscriptionStatus)
		r.Post("/api/fix-subscription", h.fixSubscription)
		r.Get("/api/verify-token", h.verifyToken)

		r.Group(func(r chi.Router) {
			r.Use(requirePremium(d.Entitlement, d.Config, d.Log))

			r.Get("/api/flashcards", h.listFlashcards)
			r.Post("/api/flashcards", h.createFlashcard)
			r.Post("/api/generate-flashcards", h.generateFlashcards)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(optionalAuth(d.Verifier, d.Log))

		r.Post("/api/explain", h.explain)
	})

	return r
}

package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cardbuddy/cardbuddy/internal/auth"
	"github.com/cardbuddy/cardbuddy/internal/entitlement"
	"github.com/cardbuddy/cardbuddy/pkg/logger"
)

type handlers struct {
	entitlement EntitlementService
	flashcards  FlashcardService
	cfg         Config
	log         *slog.Logger
}

func (h *handlers) identity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id, ok := auth.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
		return nil, false
	}
	return id, true
}

func (h *handlers) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	sess, err := h.entitlement.StartCheckout(r.Context(), id.UID, id.Email)
	if err != nil {
		h.log.ErrorContext(r.Context(), "checkout session creation failed",
			logger.UserID(id.UID), logger.Error(err))
		writeError(w, http.StatusBadGateway, codeProviderError, "could not start checkout")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": sess.ID, "url": sess.URL})
}

// checkoutSuccess lands the browser after a completed checkout. The state
// write is best-effort: the completed-checkout webhook covers the same
// reconciliation, so a failure here only delays the entitlement.
func (h *handlers) checkoutSuccess(w http.ResponseWriter, r *http.Request) {
	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		if err := h.entitlement.ConfirmCheckout(r.Context(), sessionID); err != nil {
			h.log.WarnContext(r.Context(), "post-checkout reconciliation failed, webhook will catch up",
				slog.String("session_id", sessionID), logger.Error(err))
		}
	}
	http.Redirect(w, r, h.cfg.DashboardURL, http.StatusFound)
}

func (h *handlers) checkoutCancel(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.cfg.DashboardURL, http.StatusFound)
}

// webhook receives processor events. Non-2xx responses make the processor
// redeliver, so transient lookup failures are returned as errors while
// irrelevant events are acknowledged.
func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.WebhookMaxBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidPayload, "unreadable payload")
		return
	}

	err = h.entitlement.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	case errors.Is(err, entitlement.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, codeInvalidSignature, "webhook signature verification failed")
	case errors.Is(err, entitlement.ErrInvalidPayload),
		errors.Is(err, entitlement.ErrMissingUserMetadata),
		errors.Is(err, entitlement.ErrNoSubscriptionInSession):
		writeError(w, http.StatusBadRequest, codeInvalidPayload, "malformed event")
	case errors.Is(err, entitlement.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "no matching user record")
	case errors.Is(err, entitlement.ErrProviderError):
		h.log.ErrorContext(r.Context(), "webhook follow-up read failed", logger.Error(err))
		writeError(w, http.StatusBadGateway, codeProviderError, "payment provider unavailable")
	default:
		h.log.ErrorContext(r.Context(), "webhook processing failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, codeStoreUnavailable, "could not persist subscription state")
	}
}

type subscriptionView struct {
	Status           string `json:"status"`
	Plan             string `json:"plan"`
	CurrentPeriodEnd int64  `json:"currentPeriodEnd"`
}

func (h *handlers) subscriptionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	rec, err := h.entitlement.Record(r.Context(), id.UID)
	if errors.Is(err, entitlement.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "no subscription record")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "subscription status read failed",
			logger.UserID(id.UID), logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "subscription status unavailable")
		return
	}

	resp := struct {
		IsPremium    bool              `json:"isPremium"`
		Subscription *subscriptionView `json:"subscription"`
	}{IsPremium: rec.IsPremium()}
	if sub := rec.Subscription; sub != nil {
		resp.Subscription = &subscriptionView{
			Status:           string(sub.Status),
			Plan:             sub.Plan,
			CurrentPeriodEnd: sub.CurrentPeriodEnd,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) createPortalSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	url, err := h.entitlement.PortalLink(r.Context(), id.UID)
	switch {
	case errors.Is(err, entitlement.ErrRecordNotFound), errors.Is(err, entitlement.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "no billing account on file")
	case err != nil:
		h.log.ErrorContext(r.Context(), "portal session creation failed",
			logger.UserID(id.UID), logger.Error(err))
		writeError(w, http.StatusBadGateway, codeProviderError, "could not open billing portal")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	}
}

func (h *handlers) fixSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	res, err := h.entitlement.Repair(r.Context(), id.UID, id.Email)
	switch {
	case errors.Is(err, entitlement.ErrCustomerNotFound),
		errors.Is(err, entitlement.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "no subscription found at the payment provider")
	case err != nil:
		h.log.ErrorContext(r.Context(), "subscription repair failed",
			logger.UserID(id.UID), logger.Error(err))
		writeError(w, http.StatusBadGateway, codeProviderError, "could not repair subscription")
	default:
		writeJSON(w, http.StatusOK, struct {
			Success        bool   `json:"success"`
			CustomerID     string `json:"customer_id"`
			SubscriptionID string `json:"subscription_id"`
			Status         string `json:"status"`
		}{true, res.CustomerID, res.SubscriptionID, string(res.Status)})
	}
}

func (h *handlers) verifyToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

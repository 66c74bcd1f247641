package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/cardbuddy/cardbuddy/internal/auth"
	"github.com/cardbuddy/cardbuddy/pkg/logger"
)

// requireAuth verifies the bearer token and stores the caller's identity
// in the request context. Requests without a valid token get 401.
func requireAuth(verifier auth.TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
				return
			}

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.DebugContext(r.Context(), "token rejected", logger.Error(err))
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetIdentity(r.Context(), id)))
		})
	}
}

// requirePremium gates a route on an active subscription. It must run
// after requireAuth. A store outage denies by default; the explicit
// fail-open switch trades correctness for availability and every pass
// through it is logged.
func requirePremium(svc EntitlementService, cfg Config, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.GetIdentity(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
				return
			}

			premium, err := svc.IsPremium(r.Context(), id.UID)
			if err != nil {
				if cfg.FailOpen {
					log.ErrorContext(r.Context(), "entitlement store unavailable, failing open",
						logger.UserID(id.UID), logger.Error(err))
					next.ServeHTTP(w, r)
					return
				}
				log.ErrorContext(r.Context(), "entitlement store unavailable, denying",
					logger.UserID(id.UID), logger.Error(err))
				writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "subscription status unavailable")
				return
			}

			if !premium {
				writeError(w, http.StatusForbidden, codePremiumRequired, "premium subscription required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// optionalAuth resolves the caller's identity when a bearer token is
// present and valid, and lets the request through anonymously otherwise.
func optionalAuth(verifier auth.TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r)
			if err != nil {
				if !errors.Is(err, auth.ErrMissingToken) {
					log.DebugContext(r.Context(), "malformed authorization header ignored", logger.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.WarnContext(r.Context(), "invalid token on optional-auth route", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetIdentity(r.Context(), id)))
		})
	}
}

// requestLogger emits one structured line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

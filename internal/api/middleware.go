/**
 * @description
 * This file contains custom middleware for the HTTP router: optional session resolution
 * from the session cookie, session enforcement for owner endpoints, and per-client rate
 * limiting of the donation endpoints.
 *
 * @dependencies
 * - context, net, net/http, strconv: Standard Go libraries.
 * - github.com/google/uuid: For user ids.
 */

package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/DevifyPro/fundraising-app/internal/app"
	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/google/uuid"
)

// sessionContextKey is a custom type for the context key to avoid collisions.
type sessionContextKey string

const sessionUserKey sessionContextKey = "sessionUser"

// SessionUserResolver loads the user a verified session token refers to.
type SessionUserResolver interface {
	ResolveSessionUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// DonationRateLimiter counts donation attempts per route and client.
type DonationRateLimiter interface {
	ConsumeDonationRateLimit(ctx context.Context, route app.DonationRoute, clientIP string) (allowed bool, retryAfterSeconds int)
}

// SessionMiddleware resolves the signed-in user from the session cookie when present.
// Requests without a valid session continue anonymously.
func SessionMiddleware(sessions *SessionManager, resolver SessionUserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" || !sessions.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := sessions.Parse(cookie.Value)
			if err != nil {
				log.Printf("level=info component=api middleware=session outcome=anonymous reason=invalid_token err=%v", err)
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.ResolveSessionUser(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, app.ErrUnknownSessionUser) {
					log.Printf("level=warn component=api middleware=session outcome=anonymous reason=user_lookup_failed user_id=%s err=%v", userID, err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that SessionMiddleware did not resolve to a user.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionUser(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSessionUser retrieves the signed-in user from the request context.
func GetSessionUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(sessionUserKey).(*domain.User)
	return user, ok && user != nil
}

// sessionUserID returns the signed-in user's id, or nil for anonymous requests.
func sessionUserID(ctx context.Context) *uuid.UUID {
	user, ok := GetSessionUser(ctx)
	if !ok {
		return nil
	}
	id := user.ID
	return &id
}

// DonationRateLimitMiddleware limits attempts on one donation route per client IP. It relies
// on middleware.RealIP having normalized RemoteAddr.
func DonationRateLimitMiddleware(limiter DonationRateLimiter, route app.DonationRoute) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := clientIP(r)
			allowed, retryAfter := limiter.ConsumeDonationRateLimit(r.Context(), route, subject)
			if !allowed {
				log.Printf("level=warn component=api middleware=rate_limit outcome=reject route=%s client_ip=%s retry_after=%d", route, subject, retryAfter)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many donation attempts. Please wait and try again."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

/**
 * @description
 * This file sets up the HTTP router for the fundraising-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies the
 * middleware each group needs.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS handling for the browser frontend.
 */

package api

import (
	"net/http"
	"time"

	"github.com/DevifyPro/fundraising-app/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions carries the settings that change which routes are mounted.
type RouterOptions struct {
	AllowedOrigins         []string
	DirectDonationsEnabled bool
}

// NewRouter creates and returns the router for the fundraising service.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Signed by the processor; no session involved.
	r.Post("/webhooks/stripe", h.StripeWebhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(h.sessions, h.service))

		r.Get("/campaigns", h.ListCampaignsHandler)
		r.Get("/campaigns/{id}", h.GetCampaignHandler)

		r.Post("/auth/login", h.LoginHandler)
		r.Delete("/auth/login", h.LogoutHandler)

		r.With(DonationRateLimitMiddleware(h.service, app.DonationRouteCheckout)).
			Post("/donations/checkout", h.CreateCheckoutHandler)
		if opts.DirectDonationsEnabled {
			r.With(DonationRateLimitMiddleware(h.service, app.DonationRouteDirect)).
				Post("/donations", h.DirectDonationHandler)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireSession)

			r.Post("/campaigns", h.CreateCampaignHandler)
			r.Patch("/campaigns/{id}", h.UpdateCampaignHandler)
			r.Delete("/campaigns/{id}", h.DeleteCampaignHandler)
			r.Patch("/campaigns/{id}/status", h.UpdateCampaignStatusHandler)
			r.Post("/payments/stripe/connect", h.StripeConnectHandler)
			r.Get("/payments/stripe/status", h.StripeStatusHandler)
		})
	})

	return r
}

package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/DevifyPro/fundraising-app/internal/app"
)

// StripeWebhookHandler verifies and applies a payment processor webhook delivery. Every
// verified event is acknowledged with 200 so the processor stops retrying; rejected or
// failed deliveries return an error status and are retried.
func (h *Handlers) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Printf("level=warn component=api endpoint=stripe_webhook outcome=reject reason=unreadable_body err=%v", err)
		writeError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	outcome, err := h.service.HandleSettlementEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingSignature):
			log.Printf("level=warn component=api endpoint=stripe_webhook outcome=reject reason=missing_signature")
			writeError(w, http.StatusBadRequest, app.ErrMissingSignature.Error())
		case errors.Is(err, app.ErrAuthentication):
			log.Printf("level=warn component=api endpoint=stripe_webhook outcome=reject reason=invalid_signature err=%v", err)
			writeError(w, http.StatusBadRequest, app.ErrInvalidSignature.Error())
		case errors.Is(err, app.ErrConfiguration):
			log.Printf("level=error component=api endpoint=stripe_webhook outcome=failed reason=configuration err=%v", err)
			writeError(w, http.StatusInternalServerError, "Webhook is not configured")
		default:
			log.Printf("level=error component=api endpoint=stripe_webhook outcome=failed reason=unexpected err=%v", err)
			writeError(w, http.StatusInternalServerError, "Webhook handler failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"received": true, "status": outcome})
}

package api

import (
	"net/http"

	"github.com/DevifyPro/fundraising-app/internal/domain"
)

// CreateCheckoutHandler opens a hosted checkout session and returns its URL.
func (h *Handlers) CreateCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.DonationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, "checkout", err)
		return
	}

	result, err := h.service.InitiateCheckout(r.Context(), req, sessionUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "checkout", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": result.URL})
}

// DirectDonationHandler records a donation without the payment processor. Routed only when
// direct donations are enabled.
func (h *Handlers) DirectDonationHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.DonationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, "direct_donation", err)
		return
	}

	donation, err := h.service.RecordDirectDonation(r.Context(), req, sessionUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "direct_donation", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"donation": donation})
}

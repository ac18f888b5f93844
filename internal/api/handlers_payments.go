package api

import (
	"net/http"
)

// StripeConnectHandler starts or resumes payout onboarding and redirects to the processor.
func (h *Handlers) StripeConnectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetSessionUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	link, err := h.service.StartPayoutOnboarding(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, "stripe_connect", err)
		return
	}
	http.Redirect(w, r, link, http.StatusSeeOther)
}

// StripeStatusHandler reports the signed-in user's payout account state.
func (h *Handlers) StripeStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetSessionUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	payout, err := h.service.GetPayoutStatus(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, "stripe_status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accountId":          payout.StripeAccountID,
		"onboardingComplete": payout.OnboardingComplete,
	})
}

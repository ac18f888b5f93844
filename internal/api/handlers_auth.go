package api

import (
	"log"
	"net/http"
	"time"

	"github.com/DevifyPro/fundraising-app/internal/domain"
)

// LoginHandler verifies credentials and issues the session cookie.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Enabled() {
		log.Printf("level=error component=api endpoint=login outcome=failed reason=configuration err=%v", ErrSessionsDisabled)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, "login", err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req)
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}

	token, expiresAt, err := h.sessions.Issue(user.ID, time.Now())
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}
	h.sessions.SetCookie(w, token, expiresAt)

	log.Printf("level=info component=api endpoint=login outcome=accepted user_id=%s", user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// LogoutHandler clears the session cookie.
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

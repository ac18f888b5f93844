package api

import (
	"log"
	"net/http"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ListCampaignsHandler returns all campaigns, newest first.
func (h *Handlers) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.ListCampaigns(r.Context())
	if err != nil {
		writeServiceError(w, "list_campaigns", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"campaigns": campaigns})
}

// GetCampaignHandler returns one campaign with its most recent donations.
func (h *Handlers) GetCampaignHandler(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.service.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"campaign": campaign})
}

// CreateCampaignHandler creates a draft campaign owned by the signed-in user.
func (h *Handlers) CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetSessionUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.CampaignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, "create_campaign", err)
		return
	}

	campaign, err := h.service.CreateCampaign(r.Context(), user.ID, req)
	if err != nil {
		writeServiceError(w, "create_campaign", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"campaign": campaign})
}

// UpdateCampaignHandler edits title, story, goal or status. Owner or admin only.
func (h *Handlers) UpdateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetSessionUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var patch domain.CampaignPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeDecodeError(w, "update_campaign", err)
		return
	}

	campaign, err := h.service.UpdateCampaign(r.Context(), user.ID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, "update_campaign", err)
		return
	}

	log.Printf("level=info component=api endpoint=update_campaign outcome=updated campaign_id=%s user_id=%s", campaign.ID, user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"campaign": campaign})
}

// UpdateCampaignStatusHandler lets the owner or an admin move a campaign between statuses.
func (h *Handlers) UpdateCampaignStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetSessionUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req domain.UpdateCampaignStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, "update_campaign_status", err)
		return
	}

	campaign, err := h.service.UpdateCampaignStatus(r.Context(), user.ID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, "update_campaign_status", err)
		return
	}

	log.Printf("level=info component=api endpoint=update_campaign_status outcome=updated campaign_id=%s status=%s user_id=%s", campaign.ID, campaign.Status, user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"campaign": campaign})
}

// DeleteCampaignHandler removes a campaign and its donations. Owner or admin only.
func (h *Handlers) DeleteCampaignHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := GetSessionUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.DeleteCampaign(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete_campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

/**
 * @description
 * This file defines the core domain models for the fundraising-service.
 * These structs represent campaigns, donations and the owners behind them, and
 * are shared by the store, application and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (cents), which
 *   keeps all monetary arithmetic integer-based.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Campaign statuses.
const (
	CampaignStatusDraft     = "DRAFT"
	CampaignStatusActive    = "ACTIVE"
	CampaignStatusCompleted = "COMPLETED"
	CampaignStatusClosed    = "CLOSED"
)

// Campaign maps to the `campaigns` table.
type Campaign struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Story        string    `json:"story"`
	GoalAmount   int64     `json:"goalAmount"`
	RaisedAmount int64     `json:"raisedAmount"`
	Status       string    `json:"status"`
	OwnerID      uuid.UUID `json:"ownerId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AcceptsDonations reports whether the campaign is open for new donations.
func (c *Campaign) AcceptsDonations() bool {
	return c != nil && c.Status == CampaignStatusActive
}

// CampaignSummary is the list view of a campaign.
type CampaignSummary struct {
	Campaign
	OwnerName     string `json:"ownerName"`
	DonationCount int64  `json:"donationCount"`
}

// CampaignDetail is a campaign together with its most recent donations.
type CampaignDetail struct {
	Campaign
	OwnerName       string     `json:"ownerName"`
	RecentDonations []Donation `json:"donations"`
}

// IsValidCampaignStatus reports whether status is one of the known campaign statuses.
func IsValidCampaignStatus(status string) bool {
	switch status {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusCompleted, CampaignStatusClosed:
		return true
	default:
		return false
	}
}

// CampaignRequest is the DTO for creating a campaign.
type CampaignRequest struct {
	Title      string `json:"title"`
	Story      string `json:"story"`
	GoalAmount int64  `json:"goalAmount"` // in cents
}

// CampaignPatch is the DTO for editing a campaign. Nil fields are left unchanged.
type CampaignPatch struct {
	Title      *string `json:"title,omitempty"`
	Story      *string `json:"story,omitempty"`
	GoalAmount *int64  `json:"goalAmount,omitempty"`
	Status     *string `json:"status,omitempty"`
}

// UpdateCampaignStatusRequest is the DTO for owner-driven status transitions.
type UpdateCampaignStatusRequest struct {
	Status string `json:"status"`
}

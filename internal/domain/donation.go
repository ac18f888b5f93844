package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DonationStatusSucceeded is the only donation status ever persisted. Pending or
// failed checkouts never reach the database.
const DonationStatusSucceeded = "SUCCEEDED"

// Donation sources, carried on domain events.
const (
	DonationSourceCheckout = "checkout"
	DonationSourceDirect   = "direct"
)

// Donation maps to the `donations` table.
type Donation struct {
	ID                uuid.UUID  `json:"id"`
	CampaignID        uuid.UUID  `json:"campaignId"`
	Amount            int64      `json:"amount"` // in cents
	DonorID           *uuid.UUID `json:"donorId,omitempty"`
	DonorName         *string    `json:"donorName,omitempty"`
	DonorMessage      *string    `json:"donorMessage,omitempty"`
	IsAnonymous       bool       `json:"isAnonymous"`
	Status            string     `json:"status"`
	CheckoutSessionID *string    `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// MarshalJSON hides the donor's identity on anonymous donations. Donations are served on
// public campaign pages.
func (d Donation) MarshalJSON() ([]byte, error) {
	type donationJSON Donation
	out := donationJSON(d)
	if out.IsAnonymous {
		out.DonorID = nil
		out.DonorName = nil
	}
	return json.Marshal(out)
}

// DonationRequest is the DTO accepted by both the checkout and the direct donation endpoints.
type DonationRequest struct {
	CampaignID  string `json:"campaignId"`
	Amount      int64  `json:"amount"` // in cents
	Name        string `json:"name,omitempty"`
	Message     string `json:"message,omitempty"`
	IsAnonymous bool   `json:"isAnonymous,omitempty"`
}

// Metadata keys written to and read from the processor's checkout session.
const (
	MetadataKeyCampaignID   = "campaignId"
	MetadataKeyDonorUserID  = "userId"
	MetadataKeyIsAnonymous  = "isAnonymous"
	MetadataKeyDonorName    = "donorName"
	MetadataKeyDonorMessage = "donorMessage"
)

// DonationMetadata is the record attached to a checkout session and returned by the
// processor on settlement. It is the only link between a paid session and a donation row.
type DonationMetadata struct {
	CampaignID   string
	DonorUserID  string
	IsAnonymous  bool
	DonorName    string
	DonorMessage string
}

// ToMap encodes the metadata into the processor's string map.
func (m DonationMetadata) ToMap() map[string]string {
	return map[string]string{
		MetadataKeyCampaignID:   m.CampaignID,
		MetadataKeyDonorUserID:  m.DonorUserID,
		MetadataKeyIsAnonymous:  strconv.FormatBool(m.IsAnonymous),
		MetadataKeyDonorName:    m.DonorName,
		MetadataKeyDonorMessage: m.DonorMessage,
	}
}

// DonationMetadataFromMap decodes the processor's string map. Missing keys decode to zero values.
func DonationMetadataFromMap(values map[string]string) DonationMetadata {
	return DonationMetadata{
		CampaignID:   strings.TrimSpace(values[MetadataKeyCampaignID]),
		DonorUserID:  strings.TrimSpace(values[MetadataKeyDonorUserID]),
		IsAnonymous:  values[MetadataKeyIsAnonymous] == "true",
		DonorName:    values[MetadataKeyDonorName],
		DonorMessage: values[MetadataKeyDonorMessage],
	}
}

// NewDonationRecord builds the row to insert for a confirmed donation. Anonymous donations
// never keep the donor's name; empty strings become NULLs.
func NewDonationRecord(campaignID uuid.UUID, amount int64, donorID *uuid.UUID, meta DonationMetadata, checkoutSessionID *string) *Donation {
	var name *string
	if !meta.IsAnonymous {
		name = optionalString(meta.DonorName)
	}
	return &Donation{
		ID:                uuid.New(),
		CampaignID:        campaignID,
		Amount:            amount,
		DonorID:           donorID,
		DonorName:         name,
		DonorMessage:      optionalString(meta.DonorMessage),
		IsAnonymous:       meta.IsAnonymous,
		Status:            DonationStatusSucceeded,
		CheckoutSessionID: checkoutSessionID,
	}
}

// DonationSucceededEvent is published after a donation commits.
type DonationSucceededEvent struct {
	DonationID   uuid.UUID `json:"donation_id"`
	CampaignID   uuid.UUID `json:"campaign_id"`
	Amount       int64     `json:"amount"`
	RaisedAmount int64     `json:"raised_amount"`
	Source       string    `json:"source"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

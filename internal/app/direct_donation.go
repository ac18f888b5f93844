package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/google/uuid"
)

// RecordDirectDonation records a succeeded donation without involving the payment processor.
// It exists for sandboxes without processor credentials and is only routed when enabled.
func (s *Service) RecordDirectDonation(ctx context.Context, req domain.DonationRequest, donorUserID *uuid.UUID) (*domain.Donation, error) {
	campaignID, req, err := validateDonationRequest(req)
	if err != nil {
		return nil, err
	}

	campaign, err := s.repo.FindCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrCampaignNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if !campaign.AcceptsDonations() {
		return nil, ErrCampaignNotAcceptingDonations
	}

	donation := domain.NewDonationRecord(campaign.ID, req.Amount, donorUserID, donationMetadata(campaign.ID, req, donorUserID), nil)
	raised, err := s.repo.RecordDonation(ctx, donation)
	switch {
	case errors.Is(err, store.ErrCampaignNotFound):
		return nil, ErrCampaignNotFound
	case errors.Is(err, store.ErrCampaignNotActive):
		// Status changed after the check above; the transaction rolled back.
		log.Printf("level=warn component=service flow=direct_donation outcome=reject reason=campaign_not_active campaign_id=%s", campaign.ID)
		return nil, ErrCampaignNotAcceptingDonations
	case err != nil:
		return nil, fmt.Errorf("failed to record donation: %w", err)
	}

	log.Printf("level=info component=service flow=direct_donation outcome=recorded campaign_id=%s donation_id=%s amount=%d raised=%d", campaign.ID, donation.ID, donation.Amount, raised)
	s.publishDonationSucceeded(ctx, donation, raised, domain.DonationSourceDirect)
	return donation, nil
}

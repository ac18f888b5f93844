package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/DevifyPro/fundraising-app/pkg/payments"
	"github.com/google/uuid"
)

// CheckoutResult is returned to the donor's browser, which follows URL to the hosted page.
type CheckoutResult struct {
	URL       string `json:"url"`
	SessionID string `json:"-"`
}

// InitiateCheckout opens a hosted checkout session on the campaign owner's connected account.
// Nothing is recorded locally; the donation is written only when the processor confirms
// payment through the settlement webhook.
func (s *Service) InitiateCheckout(ctx context.Context, req domain.DonationRequest, donorUserID *uuid.UUID) (*CheckoutResult, error) {
	campaignID, req, err := validateDonationRequest(req)
	if err != nil {
		return nil, err
	}

	if !s.ProcessorEnabled() {
		return nil, ErrProcessorUnavailable
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

	payout, err := s.repo.FindPayoutAccountByOwnerID(ctx, campaign.OwnerID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrPayoutNotConfigured
		}
		return nil, fmt.Errorf("failed to load payout account: %w", err)
	}
	if !payout.CanReceiveFunds() {
		return nil, ErrPayoutNotConfigured
	}

	campaignURL := fmt.Sprintf("%s/campaigns/%s", s.settings.AppBaseURL, url.PathEscape(campaign.Slug))
	session, err := s.processor.CreateCheckoutSession(ctx, payments.CheckoutSessionRequest{
		ConnectedAccountID: *payout.StripeAccountID,
		ProductName:        campaign.Title,
		Amount:             req.Amount,
		Currency:           s.settings.Currency,
		SuccessURL:         campaignURL + "?checkout=success",
		CancelURL:          campaignURL + "?checkout=cancelled",
		Metadata:           donationMetadata(campaign.ID, req, donorUserID).ToMap(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	log.Printf("level=info component=service flow=checkout outcome=session_created campaign_id=%s session_id=%s amount=%d", campaign.ID, session.ID, req.Amount)
	return &CheckoutResult{URL: session.URL, SessionID: session.ID}, nil
}

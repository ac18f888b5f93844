package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/DevifyPro/fundraising-app/pkg/payments"
	"github.com/google/uuid"
)

// SettlementOutcome describes what a verified webhook delivery did.
type SettlementOutcome string

const (
	SettlementIgnored       SettlementOutcome = "ignored"
	SettlementSettled       SettlementOutcome = "settled"
	SettlementDuplicate     SettlementOutcome = "duplicate"
	SettlementAccountSynced SettlementOutcome = "account_synced"
)

// HandleSettlementEvent verifies and applies one processor webhook delivery. Any verified
// delivery yields an outcome; an error means the delivery was rejected or could not be
// applied and the processor should retry it.
func (s *Service) HandleSettlementEvent(ctx context.Context, payload []byte, signatureHeader string) (SettlementOutcome, error) {
	if !s.ProcessorEnabled() {
		return "", ErrProcessorUnavailable
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return "", ErrMissingSignature
	}
	if strings.TrimSpace(s.settings.WebhookSecret) == "" {
		return "", ErrWebhookSecretMissing
	}

	event, err := s.processor.VerifyWebhook(payload, signatureHeader, s.settings.WebhookSecret)
	if err != nil {
		if errors.Is(err, payments.ErrMalformedEvent) {
			log.Printf("level=warn component=service flow=settlement outcome=ignored reason=malformed_event err=%v", err)
			return SettlementIgnored, nil
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case payments.EventCheckoutSessionCompleted:
		if event.CheckoutSession == nil {
			return SettlementIgnored, nil
		}
		return s.settleCheckout(ctx, event.ID, event.CheckoutSession)
	case payments.EventAccountUpdated:
		if event.AccountStatus == nil {
			return SettlementIgnored, nil
		}
		return s.syncPayoutAccount(ctx, event.AccountStatus)
	default:
		log.Printf("level=info component=service flow=settlement outcome=ignored event_id=%s event_type=%s", event.ID, event.Type)
		return SettlementIgnored, nil
	}
}

// settleCheckout records the donation for a completed checkout session and increments the
// campaign's raised total in one transaction. The session id is the idempotency key.
func (s *Service) settleCheckout(ctx context.Context, eventID string, session *payments.CompletedCheckout) (SettlementOutcome, error) {
	meta := domain.DonationMetadataFromMap(session.Metadata)

	if meta.CampaignID == "" || session.AmountTotal <= 0 {
		log.Printf("level=warn component=service flow=settlement outcome=ignored reason=missing_campaign_or_amount event_id=%s session_id=%s amount=%d", eventID, session.SessionID, session.AmountTotal)
		return SettlementIgnored, nil
	}
	if session.PaymentStatus == "unpaid" {
		log.Printf("level=warn component=service flow=settlement outcome=ignored reason=unpaid event_id=%s session_id=%s", eventID, session.SessionID)
		return SettlementIgnored, nil
	}
	campaignID, err := uuid.Parse(meta.CampaignID)
	if err != nil {
		log.Printf("level=warn component=service flow=settlement outcome=ignored reason=invalid_campaign_id event_id=%s session_id=%s campaign_id=%q", eventID, session.SessionID, meta.CampaignID)
		return SettlementIgnored, nil
	}

	donorID, err := s.resolveDonor(ctx, meta.DonorUserID)
	if err != nil {
		return "", err
	}

	var sessionID *string
	if id := strings.TrimSpace(session.SessionID); id != "" {
		sessionID = &id
	}
	donation := domain.NewDonationRecord(campaignID, session.AmountTotal, donorID, meta, sessionID)

	raised, err := s.repo.RecordDonation(ctx, donation)
	switch {
	case errors.Is(err, store.ErrDuplicateSettlement):
		log.Printf("level=info component=service flow=settlement outcome=duplicate event_id=%s session_id=%s campaign_id=%s", eventID, session.SessionID, campaignID)
		return SettlementDuplicate, nil
	case errors.Is(err, store.ErrCampaignNotFound):
		log.Printf("level=warn component=service flow=settlement outcome=ignored reason=campaign_not_found event_id=%s session_id=%s campaign_id=%s", eventID, session.SessionID, campaignID)
		return SettlementIgnored, nil
	case err != nil:
		return "", fmt.Errorf("failed to record donation: %w", err)
	}

	log.Printf("level=info component=service flow=settlement outcome=settled event_id=%s session_id=%s campaign_id=%s amount=%d raised=%d", eventID, session.SessionID, campaignID, donation.Amount, raised)
	s.publishDonationSucceeded(ctx, donation, raised, domain.DonationSourceCheckout)
	return SettlementSettled, nil
}

// resolveDonor maps the donor id carried in metadata to an existing user. Unknown or
// malformed ids settle as a donation without a donor.
func (s *Service) resolveDonor(ctx context.Context, rawID string) (*uuid.UUID, error) {
	if rawID == "" {
		return nil, nil
	}
	donorID, err := uuid.Parse(rawID)
	if err != nil {
		log.Printf("level=warn component=service flow=settlement msg=\"invalid donor id in metadata; recording without donor\" donor_id=%q", rawID)
		return nil, nil
	}
	if _, err := s.repo.FindUserByID(ctx, donorID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Printf("level=warn component=service flow=settlement msg=\"donor no longer exists; recording without donor\" donor_id=%s", donorID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load donor: %w", err)
	}
	return &donorID, nil
}

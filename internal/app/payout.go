package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/DevifyPro/fundraising-app/pkg/payments"
	"github.com/google/uuid"
)

const payoutDashboardPath = "/dashboard/payments"

// StartPayoutOnboarding returns the processor's hosted onboarding URL for the user. A
// connected account is created and linked on first use.
func (s *Service) StartPayoutOnboarding(ctx context.Context, userID uuid.UUID) (string, error) {
	if !s.ProcessorEnabled() {
		return "", ErrProcessorUnavailable
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrUnknownSessionUser
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	payout, err := s.repo.FindPayoutAccountByOwnerID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load payout account: %w", err)
	}

	var accountID string
	if payout.StripeAccountID != nil && *payout.StripeAccountID != "" {
		accountID = *payout.StripeAccountID
	} else {
		accountID, err = s.linkNewConnectedAccount(ctx, user)
		if err != nil {
			return "", err
		}
	}

	returnURL := s.settings.AppBaseURL + payoutDashboardPath
	link, err := s.processor.CreateOnboardingLink(ctx, accountID, returnURL, returnURL)
	if err != nil {
		return "", fmt.Errorf("failed to create onboarding link: %w", err)
	}
	return link, nil
}

func (s *Service) linkNewConnectedAccount(ctx context.Context, user *domain.User) (string, error) {
	accountID, err := s.processor.CreateConnectedAccount(ctx, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to create connected account: %w", err)
	}

	err = s.repo.SetPayoutAccountID(ctx, user.ID, accountID)
	if err == nil {
		log.Printf("level=info component=service flow=payout_onboarding outcome=account_linked user_id=%s account_id=%s", user.ID, accountID)
		return accountID, nil
	}
	if !errors.Is(err, store.ErrPayoutAccountConflict) {
		return "", fmt.Errorf("failed to store connected account: %w", err)
	}

	// A concurrent request linked an account first; continue with the stored one.
	payout, err := s.repo.FindPayoutAccountByOwnerID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to reload payout account: %w", err)
	}
	if payout.StripeAccountID == nil || *payout.StripeAccountID == "" {
		return "", fmt.Errorf("payout account vanished for user %s", user.ID)
	}
	log.Printf("level=warn component=service flow=payout_onboarding msg=\"account linked concurrently; orphaned account left unused\" user_id=%s orphan_account_id=%s", user.ID, accountID)
	return *payout.StripeAccountID, nil
}

// GetPayoutStatus returns the user's connected account id and onboarding flag.
func (s *Service) GetPayoutStatus(ctx context.Context, userID uuid.UUID) (*domain.PayoutAccount, error) {
	payout, err := s.repo.FindPayoutAccountByOwnerID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUnknownSessionUser
		}
		return nil, fmt.Errorf("failed to load payout account: %w", err)
	}
	return payout, nil
}

// syncPayoutAccount applies an account.updated notification to the payout directory.
func (s *Service) syncPayoutAccount(ctx context.Context, status *payments.AccountStatus) (SettlementOutcome, error) {
	if status.AccountID == "" {
		return SettlementIgnored, nil
	}
	complete := status.OnboardingComplete()
	updated, err := s.repo.UpdatePayoutOnboardingByAccountID(ctx, status.AccountID, complete)
	if err != nil {
		return "", fmt.Errorf("failed to update payout onboarding: %w", err)
	}
	if !updated {
		log.Printf("level=info component=service flow=account_sync outcome=ignored reason=unknown_account account_id=%s", status.AccountID)
		return SettlementIgnored, nil
	}
	log.Printf("level=info component=service flow=account_sync outcome=updated account_id=%s onboarding_complete=%t", status.AccountID, complete)
	return SettlementAccountSynced, nil
}

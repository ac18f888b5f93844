/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the fundraising-service. The application layer
 * depends only on this interface, so the PostgreSQL implementation can be swapped for
 * stubs in tests.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/google/uuid"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Campaign methods
	FindCampaignByID(ctx context.Context, campaignID uuid.UUID) (*domain.Campaign, error)
	FindCampaignDetail(ctx context.Context, campaignID uuid.UUID, recentDonations int) (*domain.CampaignDetail, error)
	ListCampaigns(ctx context.Context) ([]domain.CampaignSummary, error)
	// CreateCampaign inserts the campaign and fills in its stored timestamps. A slug already
	// in use yields ErrSlugTaken.
	CreateCampaign(ctx context.Context, campaign *domain.Campaign) error
	// UpdateCampaign applies the non-nil fields of patch.
	UpdateCampaign(ctx context.Context, campaignID uuid.UUID, patch domain.CampaignPatch) (*domain.Campaign, error)
	// DeleteCampaign removes the campaign together with its donations.
	DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error

	// Payout account methods
	FindPayoutAccountByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.PayoutAccount, error)
	SetPayoutAccountID(ctx context.Context, ownerID uuid.UUID, accountID string) error
	UpdatePayoutOnboardingByAccountID(ctx context.Context, accountID string, complete bool) (bool, error)

	// User methods
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// RecordDonation inserts the donation and adds its amount to the campaign's raised
	// total in one transaction, returning the new raised total. A donation whose
	// checkout session id was already recorded yields ErrDuplicateSettlement and
	// changes nothing. A donation without a session id is only accepted while the campaign
	// is ACTIVE, otherwise ErrCampaignNotActive.
	RecordDonation(ctx context.Context, donation *domain.Donation) (int64, error)
}

/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains the SQL for campaigns, donations, users and their payout accounts.
 *
 * @dependencies
 * - context, errors, fmt, strings: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCampaignNotFound      = errors.New("campaign not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrDuplicateSettlement   = errors.New("checkout session already settled")
	ErrPayoutAccountConflict = errors.New("payout account already linked")
	ErrCampaignNotActive     = errors.New("campaign is not active")
	ErrSlugTaken             = errors.New("campaign slug already taken")
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"

	donationsCampaignFK = "donations_campaign_id_fkey"
	campaignsSlugKey    = "campaigns_slug_key"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const campaignColumns = `c.id, c.slug, c.title, c.story, c.goal_amount, c.raised_amount, c.status, c.owner_id, c.created_at, c.updated_at`

func scanCampaign(row pgx.Row, campaign *domain.Campaign, extra ...any) error {
	dest := []any{
		&campaign.ID,
		&campaign.Slug,
		&campaign.Title,
		&campaign.Story,
		&campaign.GoalAmount,
		&campaign.RaisedAmount,
		&campaign.Status,
		&campaign.OwnerID,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// FindCampaignByID retrieves a campaign by its ID.
func (r *PostgresRepository) FindCampaignByID(ctx context.Context, campaignID uuid.UUID) (*domain.Campaign, error) {
	var campaign domain.Campaign
	query := `SELECT ` + campaignColumns + ` FROM campaigns c WHERE c.id = $1`
	if err := scanCampaign(r.db.QueryRow(ctx, query, campaignID), &campaign); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// FindCampaignDetail retrieves a campaign, its owner's name and its most recent donations.
func (r *PostgresRepository) FindCampaignDetail(ctx context.Context, campaignID uuid.UUID, recentDonations int) (*domain.CampaignDetail, error) {
	var detail domain.CampaignDetail
	query := `
		SELECT ` + campaignColumns + `, COALESCE(u.name, '')
		FROM campaigns c
		JOIN users u ON u.id = c.owner_id
		WHERE c.id = $1
	`
	if err := scanCampaign(r.db.QueryRow(ctx, query, campaignID), &detail.Campaign, &detail.OwnerName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	if recentDonations <= 0 {
		recentDonations = 10
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, campaign_id, amount, donor_id, donor_name, donor_message, is_anonymous, status, created_at
		FROM donations
		WHERE campaign_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, campaignID, recentDonations)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent donations: %w", err)
	}
	defer rows.Close()

	detail.RecentDonations = make([]domain.Donation, 0, recentDonations)
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.CampaignID, &d.Amount, &d.DonorID, &d.DonorName, &d.DonorMessage, &d.IsAnonymous, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		detail.RecentDonations = append(detail.RecentDonations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListCampaigns returns every campaign, newest first, with owner name and donation count.
func (r *PostgresRepository) ListCampaigns(ctx context.Context) ([]domain.CampaignSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+campaignColumns+`, COALESCE(u.name, ''),
			(SELECT COUNT(*) FROM donations d WHERE d.campaign_id = c.id)
		FROM campaigns c
		JOIN users u ON u.id = c.owner_id
		ORDER BY c.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := make([]domain.CampaignSummary, 0)
	for rows.Next() {
		var summary domain.CampaignSummary
		if err := scanCampaign(rows, &summary.Campaign, &summary.OwnerName, &summary.DonationCount); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, summary)
	}
	return campaigns, rows.Err()
}

// CreateCampaign inserts a new campaign. Raised amount and timestamps come from the database.
func (r *PostgresRepository) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (id, slug, title, story, goal_amount, status, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING raised_amount, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		campaign.ID,
		campaign.Slug,
		campaign.Title,
		campaign.Story,
		campaign.GoalAmount,
		campaign.Status,
		campaign.OwnerID,
	).Scan(&campaign.RaisedAmount, &campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == campaignsSlugKey:
				return ErrSlugTaken
			case pgErr.Code == pgForeignKeyViolation:
				return ErrUserNotFound
			}
		}
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	return nil
}

// UpdateCampaign applies the set fields of patch and returns the updated row.
func (r *PostgresRepository) UpdateCampaign(ctx context.Context, campaignID uuid.UUID, patch domain.CampaignPatch) (*domain.Campaign, error) {
	var campaign domain.Campaign
	query := `
		UPDATE campaigns c
		SET title = COALESCE($2::text, c.title),
			story = COALESCE($3::text, c.story),
			goal_amount = COALESCE($4::bigint, c.goal_amount),
			status = COALESCE($5::text, c.status),
			updated_at = NOW()
		WHERE c.id = $1
		RETURNING ` + campaignColumns
	row := r.db.QueryRow(ctx, query, campaignID, patch.Title, patch.Story, patch.GoalAmount, patch.Status)
	if err := scanCampaign(row, &campaign); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// DeleteCampaign removes a campaign. Its donations go with it through ON DELETE CASCADE.
func (r *PostgresRepository) DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, campaignID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// FindPayoutAccountByOwnerID returns the owner's connected account state.
func (r *PostgresRepository) FindPayoutAccountByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.PayoutAccount, error) {
	account := domain.PayoutAccount{OwnerID: ownerID}
	query := `SELECT stripe_account_id, stripe_onboarding_complete FROM users WHERE id = $1`
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&account.StripeAccountID, &account.OnboardingComplete); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &account, nil
}

// SetPayoutAccountID links a newly created connected account to its owner. An owner that
// already has an account keeps it.
func (r *PostgresRepository) SetPayoutAccountID(ctx context.Context, ownerID uuid.UUID, accountID string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET stripe_account_id = $2, stripe_onboarding_complete = FALSE, updated_at = NOW()
		WHERE id = $1 AND stripe_account_id IS NULL
	`, ownerID, strings.TrimSpace(accountID))
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, ownerID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
		return ErrPayoutAccountConflict
	}
	return nil
}

// UpdatePayoutOnboardingByAccountID records the onboarding state reported by the processor.
// It reports false when no owner is linked to the account.
func (r *PostgresRepository) UpdatePayoutOnboardingByAccountID(ctx context.Context, accountID string, complete bool) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET stripe_onboarding_complete = $2, updated_at = NOW()
		WHERE stripe_account_id = $1
	`, accountID, complete)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

const userColumns = `id, email, COALESCE(name, ''), role, COALESCE(password_hash, '')`

// FindUserByID retrieves a user by ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID).
		Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail retrieves a user by email, case-insensitively.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower(btrim($1))`, email).
		Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// RecordDonation performs the settlement write: insert the donation and increment the
// campaign's raised total, both or neither.
func (r *PostgresRepository) RecordDonation(ctx context.Context, donation *domain.Donation) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Insert the donation. A repeated checkout session id inserts nothing.
	insertQuery := `
		INSERT INTO donations (
			id, campaign_id, amount, donor_id, donor_name, donor_message,
			is_anonymous, status, checkout_session_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (checkout_session_id) DO NOTHING
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, insertQuery,
		donation.ID,
		donation.CampaignID,
		donation.Amount,
		donation.DonorID,
		donation.DonorName,
		donation.DonorMessage,
		donation.IsAnonymous,
		donation.Status,
		donation.CheckoutSessionID,
	).Scan(&donation.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrDuplicateSettlement
		}
		return 0, classifyDonationInsertError(err)
	}

	// 2. Add the amount in place so concurrent settlements on one campaign serialize on the row lock.
	// Direct donations carry no processor confirmation and are re-checked against the status here.
	settled := donation.CheckoutSessionID != nil
	var raised int64
	updateQuery := `
		UPDATE campaigns
		SET raised_amount = raised_amount + $1, updated_at = NOW()
		WHERE id = $2 AND ($3::boolean OR status = 'ACTIVE')
		RETURNING raised_amount
	`
	if err := tx.QueryRow(ctx, updateQuery, donation.Amount, donation.CampaignID, settled).Scan(&raised); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if settled {
				return 0, ErrCampaignNotFound
			}
			return 0, ErrCampaignNotActive
		}
		return 0, fmt.Errorf("failed to increment raised amount: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit donation: %w", err)
	}
	return raised, nil
}

// classifyDonationInsertError maps constraint violations on the donations table to store errors.
func classifyDonationInsertError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("failed to insert donation: %w", err)
	}
	switch {
	case pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == donationsCampaignFK:
		return ErrCampaignNotFound
	case pgErr.Code == pgForeignKeyViolation:
		return fmt.Errorf("failed to insert donation: %w", ErrUserNotFound)
	case pgErr.Code == pgUniqueViolation:
		return ErrDuplicateSettlement
	default:
		return fmt.Errorf("failed to insert donation: %w", err)
	}
}

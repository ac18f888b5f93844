package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/google/uuid"
)

// ListCampaigns returns every campaign, newest first.
func (s *Service) ListCampaigns(ctx context.Context) ([]domain.CampaignSummary, error) {
	campaigns, err := s.repo.ListCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	if campaigns == nil {
		campaigns = []domain.CampaignSummary{}
	}
	return campaigns, nil
}

// GetCampaign returns a campaign with its most recent donations. Malformed ids are reported
// as not found.
func (s *Service) GetCampaign(ctx context.Context, rawID string) (*domain.CampaignDetail, error) {
	campaignID, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	detail, err := s.repo.FindCampaignDetail(ctx, campaignID, RecentDonationsLimit)
	if err != nil {
		if errors.Is(err, store.ErrCampaignNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if detail.RecentDonations == nil {
		detail.RecentDonations = []domain.Donation{}
	}
	return detail, nil
}

// CreateCampaign creates a DRAFT campaign owned by ownerID under a freshly generated slug.
func (s *Service) CreateCampaign(ctx context.Context, ownerID uuid.UUID, req domain.CampaignRequest) (*domain.Campaign, error) {
	req, err := validateCampaignRequest(req)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < campaignSlugAttempts; attempt++ {
		campaign := &domain.Campaign{
			ID:         uuid.New(),
			Slug:       newCampaignSlug(req.Title),
			Title:      req.Title,
			Story:      req.Story,
			GoalAmount: req.GoalAmount,
			Status:     domain.CampaignStatusDraft,
			OwnerID:    ownerID,
		}
		err := s.repo.CreateCampaign(ctx, campaign)
		switch {
		case errors.Is(err, store.ErrSlugTaken):
			log.Printf("level=warn component=service flow=create_campaign msg=\"slug collision; retrying\" slug=%s attempt=%d", campaign.Slug, attempt+1)
			continue
		case errors.Is(err, store.ErrUserNotFound):
			return nil, ErrUnknownSessionUser
		case err != nil:
			return nil, fmt.Errorf("failed to create campaign: %w", err)
		}

		log.Printf("level=info component=service flow=create_campaign outcome=created campaign_id=%s slug=%s owner_id=%s", campaign.ID, campaign.Slug, ownerID)
		return campaign, nil
	}
	return nil, fmt.Errorf("failed to create campaign: no free slug after %d attempts", campaignSlugAttempts)
}

// UpdateCampaign applies an owner or admin edit. Only the fields set in patch change.
func (s *Service) UpdateCampaign(ctx context.Context, actorID uuid.UUID, rawID string, patch domain.CampaignPatch) (*domain.Campaign, error) {
	patch, err := validateCampaignPatch(patch)
	if err != nil {
		return nil, err
	}
	campaign, err := s.editableCampaign(ctx, actorID, rawID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateCampaign(ctx, campaign.ID, patch)
	if err != nil {
		if errors.Is(err, store.ErrCampaignNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return updated, nil
}

// UpdateCampaignStatus moves a campaign to status. Only the owner or an admin may do so.
func (s *Service) UpdateCampaignStatus(ctx context.Context, actorID uuid.UUID, rawID string, status string) (*domain.Campaign, error) {
	return s.UpdateCampaign(ctx, actorID, rawID, domain.CampaignPatch{Status: &status})
}

// DeleteCampaign removes a campaign and its donations. Only the owner or an admin may do so.
func (s *Service) DeleteCampaign(ctx context.Context, actorID uuid.UUID, rawID string) error {
	campaign, err := s.editableCampaign(ctx, actorID, rawID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCampaign(ctx, campaign.ID); err != nil {
		if errors.Is(err, store.ErrCampaignNotFound) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	log.Printf("level=info component=service flow=delete_campaign outcome=deleted campaign_id=%s actor_id=%s raised=%d", campaign.ID, actorID, campaign.RaisedAmount)
	return nil
}

// editableCampaign loads the campaign named by rawID and checks that actorID owns it or is an admin.
func (s *Service) editableCampaign(ctx context.Context, actorID uuid.UUID, rawID string) (*domain.Campaign, error) {
	campaignID, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, ErrCampaignNotFound
	}

	actor, err := s.repo.FindUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUnknownSessionUser
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	campaign, err := s.repo.FindCampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, store.ErrCampaignNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrCampaignEditForbidden
	}
	return campaign, nil
}

package app

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/google/uuid"
)

const (
	MinCampaignTitleLength = 3
	MaxCampaignTitleLength = 120
	MinCampaignStoryLength = 20

	campaignSlugAttempts   = 3
	campaignSlugBaseLength = 80
	campaignSlugSuffixLen  = 6
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// validateDonationRequest checks the donor-supplied fields shared by the checkout and direct
// paths, returning the parsed campaign id and the normalized request.
func validateDonationRequest(req domain.DonationRequest) (uuid.UUID, domain.DonationRequest, error) {
	req.CampaignID = strings.TrimSpace(req.CampaignID)
	req.Name = strings.TrimSpace(req.Name)
	req.Message = strings.TrimSpace(req.Message)

	if req.CampaignID == "" {
		return uuid.Nil, req, invalid("campaignId", "campaignId is required")
	}
	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return uuid.Nil, req, invalid("campaignId", "campaignId must be a valid id")
	}
	if req.Amount <= 0 {
		return uuid.Nil, req, invalid("amount", "amount must be a positive integer")
	}
	if utf8.RuneCountInString(req.Name) > MaxDonorNameLength {
		return uuid.Nil, req, invalid("name", "name must be at most 100 characters")
	}
	if utf8.RuneCountInString(req.Message) > MaxDonorMessageLength {
		return uuid.Nil, req, invalid("message", "message must be at most 300 characters")
	}
	return campaignID, req, nil
}

// donationMetadata builds the record correlating a checkout session with its eventual donation.
func donationMetadata(campaignID uuid.UUID, req domain.DonationRequest, donorUserID *uuid.UUID) domain.DonationMetadata {
	meta := domain.DonationMetadata{
		CampaignID:   campaignID.String(),
		IsAnonymous:  req.IsAnonymous,
		DonorMessage: req.Message,
	}
	if donorUserID != nil {
		meta.DonorUserID = donorUserID.String()
	}
	if !req.IsAnonymous {
		meta.DonorName = req.Name
	}
	return meta
}

// validateCampaignRequest checks a new campaign and returns it trimmed.
func validateCampaignRequest(req domain.CampaignRequest) (domain.CampaignRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Story = strings.TrimSpace(req.Story)
	if err := validateCampaignTitle(req.Title); err != nil {
		return req, err
	}
	if err := validateCampaignStory(req.Story); err != nil {
		return req, err
	}
	if req.GoalAmount <= 0 {
		return req, invalid("goalAmount", "goalAmount must be a positive integer")
	}
	return req, nil
}

// validateCampaignPatch checks the fields set on an edit. Status is normalized to upper case.
func validateCampaignPatch(patch domain.CampaignPatch) (domain.CampaignPatch, error) {
	if patch.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*patch.Status))
		if !domain.IsValidCampaignStatus(status) {
			return patch, invalid("status", "status must be one of DRAFT, ACTIVE, COMPLETED, CLOSED")
		}
		patch.Status = &status
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateCampaignTitle(title); err != nil {
			return patch, err
		}
		patch.Title = &title
	}
	if patch.Story != nil {
		story := strings.TrimSpace(*patch.Story)
		if err := validateCampaignStory(story); err != nil {
			return patch, err
		}
		patch.Story = &story
	}
	if patch.GoalAmount != nil && *patch.GoalAmount <= 0 {
		return patch, invalid("goalAmount", "goalAmount must be a positive integer")
	}
	return patch, nil
}

func validateCampaignTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < MinCampaignTitleLength || n > MaxCampaignTitleLength {
		return invalid("title", "title must be between 3 and 120 characters")
	}
	return nil
}

func validateCampaignStory(story string) error {
	if utf8.RuneCountInString(story) < MinCampaignStoryLength {
		return invalid("story", "story must be at least 20 characters")
	}
	return nil
}

// newCampaignSlug derives a URL-safe slug from title with a random suffix, e.g.
// "clean-water-for-kibera-3f9a1c".
func newCampaignSlug(title string) string {
	base := strings.Trim(slugSeparators.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(base) > campaignSlugBaseLength {
		base = strings.TrimRight(base[:campaignSlugBaseLength], "-")
	}
	if base == "" {
		base = "campaign"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:campaignSlugSuffixLen]
	return base + "-" + suffix
}

package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/DevifyPro/fundraising-app/pkg/payments"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_app_test"

// memoryRepoStub mirrors the Postgres semantics the service relies on: increments are
// serialized and a checkout session id settles at most once.
type memoryRepoStub struct {
	store.Repository

	mu        sync.Mutex
	campaigns map[uuid.UUID]*domain.Campaign
	users     map[uuid.UUID]*domain.User
	payouts   map[uuid.UUID]*domain.PayoutAccount
	donations []domain.Donation
	sessions  map[string]bool

	recordErr      error
	slugCollisions int
}

func newMemoryRepoStub() *memoryRepoStub {
	return &memoryRepoStub{
		campaigns: make(map[uuid.UUID]*domain.Campaign),
		users:     make(map[uuid.UUID]*domain.User),
		payouts:   make(map[uuid.UUID]*domain.PayoutAccount),
		sessions:  make(map[string]bool),
	}
}

func (r *memoryRepoStub) addUser(role string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := &domain.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "Owner", Role: role}
	r.users[user.ID] = user
	r.payouts[user.ID] = &domain.PayoutAccount{OwnerID: user.ID}
	return user
}

func (r *memoryRepoStub) connectPayout(ownerID uuid.UUID, accountID string, complete bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payouts[ownerID] = &domain.PayoutAccount{OwnerID: ownerID, StripeAccountID: &accountID, OnboardingComplete: complete}
}

func (r *memoryRepoStub) addCampaign(ownerID uuid.UUID, status string, goal int64) *domain.Campaign {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	campaign := &domain.Campaign{
		ID:         id,
		Slug:       "campaign-" + id.String()[:8],
		Title:      "Clean water",
		GoalAmount: goal,
		Status:     status,
		OwnerID:    ownerID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	r.campaigns[id] = campaign
	return campaign
}

func (r *memoryRepoStub) raised(campaignID uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.campaigns[campaignID].RaisedAmount
}

func (r *memoryRepoStub) donationsFor(campaignID uuid.UUID) []domain.Donation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Donation
	for _, d := range r.donations {
		if d.CampaignID == campaignID {
			out = append(out, d)
		}
	}
	return out
}

// assertRaisedMatchesDonations checks raised_amount against the sum of succeeded donations.
func assertRaisedMatchesDonations(t *testing.T, repo *memoryRepoStub, campaignID uuid.UUID) {
	t.Helper()
	var sum int64
	for _, d := range repo.donationsFor(campaignID) {
		if d.Status == domain.DonationStatusSucceeded {
			sum += d.Amount
		}
	}
	if got := repo.raised(campaignID); got != sum {
		t.Fatalf("raised amount %d does not match donation sum %d", got, sum)
	}
}

func (r *memoryRepoStub) FindCampaignByID(ctx context.Context, campaignID uuid.UUID) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign, ok := r.campaigns[campaignID]
	if !ok {
		return nil, store.ErrCampaignNotFound
	}
	copied := *campaign
	return &copied, nil
}

func (r *memoryRepoStub) FindCampaignDetail(ctx context.Context, campaignID uuid.UUID, recentDonations int) (*domain.CampaignDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign, ok := r.campaigns[campaignID]
	if !ok {
		return nil, store.ErrCampaignNotFound
	}
	detail := &domain.CampaignDetail{Campaign: *campaign}
	if owner, ok := r.users[campaign.OwnerID]; ok {
		detail.OwnerName = owner.Name
	}
	for i := len(r.donations) - 1; i >= 0 && len(detail.RecentDonations) < recentDonations; i-- {
		if r.donations[i].CampaignID == campaignID {
			detail.RecentDonations = append(detail.RecentDonations, r.donations[i])
		}
	}
	return detail, nil
}

func (r *memoryRepoStub) ListCampaigns(ctx context.Context) ([]domain.CampaignSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CampaignSummary
	for _, campaign := range r.campaigns {
		out = append(out, domain.CampaignSummary{Campaign: *campaign})
	}
	return out, nil
}

func (r *memoryRepoStub) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugCollisions > 0 {
		r.slugCollisions--
		return store.ErrSlugTaken
	}
	if _, ok := r.users[campaign.OwnerID]; !ok {
		return store.ErrUserNotFound
	}
	for _, existing := range r.campaigns {
		if existing.Slug == campaign.Slug {
			return store.ErrSlugTaken
		}
	}
	campaign.RaisedAmount = 0
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = campaign.CreatedAt
	copied := *campaign
	r.campaigns[campaign.ID] = &copied
	return nil
}

func (r *memoryRepoStub) UpdateCampaign(ctx context.Context, campaignID uuid.UUID, patch domain.CampaignPatch) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign, ok := r.campaigns[campaignID]
	if !ok {
		return nil, store.ErrCampaignNotFound
	}
	if patch.Title != nil {
		campaign.Title = *patch.Title
	}
	if patch.Story != nil {
		campaign.Story = *patch.Story
	}
	if patch.GoalAmount != nil {
		campaign.GoalAmount = *patch.GoalAmount
	}
	if patch.Status != nil {
		campaign.Status = *patch.Status
	}
	campaign.UpdatedAt = time.Now()
	copied := *campaign
	return &copied, nil
}

func (r *memoryRepoStub) DeleteCampaign(ctx context.Context, campaignID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[campaignID]; !ok {
		return store.ErrCampaignNotFound
	}
	delete(r.campaigns, campaignID)
	kept := r.donations[:0]
	for _, d := range r.donations {
		if d.CampaignID != campaignID {
			kept = append(kept, d)
		}
	}
	r.donations = kept
	return nil
}

func (r *memoryRepoStub) FindPayoutAccountByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.PayoutAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payout, ok := r.payouts[ownerID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *payout
	return &copied, nil
}

func (r *memoryRepoStub) SetPayoutAccountID(ctx context.Context, ownerID uuid.UUID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payout, ok := r.payouts[ownerID]
	if !ok {
		return store.ErrUserNotFound
	}
	if payout.StripeAccountID != nil {
		return store.ErrPayoutAccountConflict
	}
	payout.StripeAccountID = &accountID
	payout.OnboardingComplete = false
	return nil
}

func (r *memoryRepoStub) UpdatePayoutOnboardingByAccountID(ctx context.Context, accountID string, complete bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payout := range r.payouts {
		if payout.StripeAccountID != nil && *payout.StripeAccountID == accountID {
			payout.OnboardingComplete = complete
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepoStub) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryRepoStub) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (r *memoryRepoStub) RecordDonation(ctx context.Context, donation *domain.Donation) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recordErr != nil {
		return 0, r.recordErr
	}
	if donation.CheckoutSessionID != nil && r.sessions[*donation.CheckoutSessionID] {
		return 0, store.ErrDuplicateSettlement
	}
	campaign, ok := r.campaigns[donation.CampaignID]
	if !ok {
		return 0, store.ErrCampaignNotFound
	}
	if donation.CheckoutSessionID == nil && campaign.Status != domain.CampaignStatusActive {
		return 0, store.ErrCampaignNotActive
	}
	if donation.CheckoutSessionID != nil {
		r.sessions[*donation.CheckoutSessionID] = true
	}
	donation.CreatedAt = time.Now()
	r.donations = append(r.donations, *donation)
	campaign.RaisedAmount += donation.Amount
	return campaign.RaisedAmount, nil
}

// processorStub verifies webhooks with the real Stripe gateway and fakes the API calls.
type processorStub struct {
	*payments.StripeGateway

	mu               sync.Mutex
	checkoutRequests []payments.CheckoutSessionRequest
	accountsCreated  []string
	linkAccountIDs   []string
	checkoutErr      error
}

func newProcessorStub() *processorStub {
	return &processorStub{StripeGateway: payments.NewStripeGateway("sk_test_unused", nil)}
}

func (p *processorStub) CreateCheckoutSession(ctx context.Context, req payments.CheckoutSessionRequest) (*payments.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.checkoutErr != nil {
		return nil, p.checkoutErr
	}
	p.checkoutRequests = append(p.checkoutRequests, req)
	return &payments.CheckoutSession{ID: "cs_test_generated", URL: "https://checkout.stripe.com/c/pay/cs_test_generated"}, nil
}

func (p *processorStub) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accountsCreated = append(p.accountsCreated, email)
	return "acct_created_1", nil
}

func (p *processorStub) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.linkAccountIDs = append(p.linkAccountIDs, accountID)
	return "https://connect.stripe.com/setup/e/" + accountID, nil
}

type publisherStub struct {
	mu     sync.Mutex
	events []domain.DonationSucceededEvent
	keys   []string
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event, ok := body.(domain.DonationSucceededEvent); ok {
		p.events = append(p.events, event)
	}
	p.keys = append(p.keys, exchange+"/"+routingKey)
	return nil
}

func (p *publisherStub) Close() {}

type serviceFixture struct {
	repo      *memoryRepoStub
	processor *processorStub
	publisher *publisherStub
	service   *Service
}

func newServiceFixture() *serviceFixture {
	repo := newMemoryRepoStub()
	processor := newProcessorStub()
	publisher := &publisherStub{}
	service := NewService(repo, processor, publisher, Settings{
		WebhookSecret: testWebhookSecret,
		AppBaseURL:    "http://localhost:3000/",
		Currency:      "USD",
	})
	return &serviceFixture{repo: repo, processor: processor, publisher: publisher, service: service}
}

// signedEvent builds a Stripe event envelope around object and signs it with secret.
func signedEvent(t *testing.T, eventType string, object map[string]interface{}, secret string) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":     "evt_" + uuid.NewString(),
		"object": "event",
		"type":   eventType,
		"data":   map[string]interface{}{"object": object},
	})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return payload, signed.Header
}

func completedSession(sessionID string, amount int64, meta domain.DonationMetadata) map[string]interface{} {
	return map[string]interface{}{
		"id":             sessionID,
		"object":         "checkout.session",
		"amount_total":   amount,
		"currency":       "usd",
		"payment_status": "paid",
		"metadata":       meta.ToMap(),
	}
}

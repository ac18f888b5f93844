package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DevifyPro/fundraising-app/internal/app"
	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/DevifyPro/fundraising-app/pkg/payments"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82/webhook"
	"golang.org/x/crypto/bcrypt"
)

const (
	testWebhookSecret = "whsec_api_test"
	testAuthSecret    = "session-secret-for-tests"
)

type apiRepoStub struct {
	store.Repository

	mu        sync.Mutex
	campaigns map[uuid.UUID]*domain.Campaign
	users     map[uuid.UUID]*domain.User
	payouts   map[uuid.UUID]*domain.PayoutAccount
	donations []domain.Donation
	sessions  map[string]bool
}

func newAPIRepoStub() *apiRepoStub {
	return &apiRepoStub{
		campaigns: make(map[uuid.UUID]*domain.Campaign),
		users:     make(map[uuid.UUID]*domain.User),
		payouts:   make(map[uuid.UUID]*domain.PayoutAccount),
		sessions:  make(map[string]bool),
	}
}

func (r *apiRepoStub) FindCampaignByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, store.ErrCampaignNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *apiRepoStub) FindCampaignDetail(ctx context.Context, id uuid.UUID, recent int) (*domain.CampaignDetail, error) {
	c, err := r.FindCampaignByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.CampaignDetail{Campaign: *c, OwnerName: "Owner"}, nil
}

func (r *apiRepoStub) ListCampaigns(ctx context.Context) ([]domain.CampaignSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CampaignSummary, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		out = append(out, domain.CampaignSummary{Campaign: *c, OwnerName: "Owner"})
	}
	return out, nil
}

func (r *apiRepoStub) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	copied := *c
	r.campaigns[c.ID] = &copied
	return nil
}

func (r *apiRepoStub) UpdateCampaign(ctx context.Context, id uuid.UUID, patch domain.CampaignPatch) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, store.ErrCampaignNotFound
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Story != nil {
		c.Story = *patch.Story
	}
	if patch.GoalAmount != nil {
		c.GoalAmount = *patch.GoalAmount
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	copied := *c
	return &copied, nil
}

func (r *apiRepoStub) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[id]; !ok {
		return store.ErrCampaignNotFound
	}
	delete(r.campaigns, id)
	return nil
}

func (r *apiRepoStub) FindPayoutAccountByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.PayoutAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[ownerID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *apiRepoStub) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *apiRepoStub) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (r *apiRepoStub) RecordDonation(ctx context.Context, d *domain.Donation) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.CheckoutSessionID != nil && r.sessions[*d.CheckoutSessionID] {
		return 0, store.ErrDuplicateSettlement
	}
	c, ok := r.campaigns[d.CampaignID]
	if !ok {
		return 0, store.ErrCampaignNotFound
	}
	if d.CheckoutSessionID == nil && c.Status != domain.CampaignStatusActive {
		return 0, store.ErrCampaignNotActive
	}
	if d.CheckoutSessionID != nil {
		r.sessions[*d.CheckoutSessionID] = true
	}
	r.donations = append(r.donations, *d)
	c.RaisedAmount += d.Amount
	return c.RaisedAmount, nil
}

type apiProcessorStub struct {
	*payments.StripeGateway
	lastCheckout payments.CheckoutSessionRequest
}

func (p *apiProcessorStub) CreateCheckoutSession(ctx context.Context, req payments.CheckoutSessionRequest) (*payments.CheckoutSession, error) {
	p.lastCheckout = req
	return &payments.CheckoutSession{ID: "cs_api_1", URL: "https://checkout.stripe.com/c/pay/cs_api_1"}, nil
}

func (p *apiProcessorStub) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return "https://connect.stripe.com/setup/e/" + accountID, nil
}

type limiterStub struct {
	allowed    bool
	retryAfter int
	subjects   []string
}

func (l *limiterStub) ConsumeDonationRateLimit(ctx context.Context, route app.DonationRoute, clientIP string) (bool, int) {
	l.subjects = append(l.subjects, string(route)+"/"+clientIP)
	return l.allowed, l.retryAfter
}

type apiFixture struct {
	repo      *apiRepoStub
	processor *apiProcessorStub
	owner     *domain.User
	active    *domain.Campaign
	closed    *domain.Campaign
	router    http.Handler
}

func newAPIFixture(t *testing.T, withProcessor bool, opts RouterOptions) *apiFixture {
	t.Helper()
	repo := newAPIRepoStub()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	owner := &domain.User{ID: uuid.New(), Email: "owner@example.com", Name: "Owner", Role: domain.UserRoleUser, PasswordHash: string(hash)}
	accountID := "acct_api_owner"
	repo.users[owner.ID] = owner
	repo.payouts[owner.ID] = &domain.PayoutAccount{OwnerID: owner.ID, StripeAccountID: &accountID, OnboardingComplete: true}

	active := &domain.Campaign{ID: uuid.New(), Slug: "active", Title: "Active", GoalAmount: 10000, Status: domain.CampaignStatusActive, OwnerID: owner.ID}
	closed := &domain.Campaign{ID: uuid.New(), Slug: "closed", Title: "Closed", GoalAmount: 10000, Status: domain.CampaignStatusClosed, OwnerID: owner.ID}
	repo.campaigns[active.ID] = active
	repo.campaigns[closed.ID] = closed

	var processor payments.Processor
	var processorStub *apiProcessorStub
	if withProcessor {
		processorStub = &apiProcessorStub{StripeGateway: payments.NewStripeGateway("sk_test_unused", nil)}
		processor = processorStub
	}

	service := app.NewService(repo, processor, nil, app.Settings{
		WebhookSecret: testWebhookSecret,
		AppBaseURL:    "http://localhost:3000",
	})
	handlers := NewHandlers(service, NewSessionManager(testAuthSecret, "http://localhost:3000"))

	return &apiFixture{
		repo:      repo,
		processor: processorStub,
		owner:     owner,
		active:    active,
		closed:    closed,
		router:    NewRouter(handlers, opts),
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body []byte, headers map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func signedWebhook(t *testing.T, eventType string, object map[string]interface{}) ([]byte, string) {
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
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testWebhookSecret, Timestamp: time.Now()})
	return payload, signed.Header
}

func TestHealth(t *testing.T) {
	fx := newAPIFixture(t, true, RouterOptions{})
	rec := doRequest(t, fx.router, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestStripeWebhook_StatusCodes(t *testing.T) {
	fx := newAPIFixture(t, true, RouterOptions{})
	completed := map[string]interface{}{
		"id":             "cs_api_webhook",
		"object":         "checkout.session",
		"amount_total":   2500,
		"payment_status": "paid",
		"metadata":       domain.DonationMetadata{CampaignID: fx.active.ID.String()}.ToMap(),
	}
	payload, header := signedWebhook(t, "checkout.session.completed", completed)
	refundPayload, refundHeader := signedWebhook(t, "charge.refunded", map[string]interface{}{"id": "ch_1", "object": "charge"})

	tests := []struct {
		name       string
		payload    []byte
		header     string
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{name: "missing signature", payload: payload, header: "", wantStatus: http.StatusBadRequest, wantBody: map[string]interface{}{"error": "Missing stripe-signature header"}},
		{name: "invalid signature", payload: payload, header: "t=1,v1=bogus", wantStatus: http.StatusBadRequest, wantBody: map[string]interface{}{"error": "Invalid signature"}},
		{name: "settles", payload: payload, header: header, wantStatus: http.StatusOK, wantBody: map[string]interface{}{"received": true, "status": "settled"}},
		{name: "redelivery", payload: payload, header: header, wantStatus: http.StatusOK, wantBody: map[string]interface{}{"received": true, "status": "duplicate"}},
		{name: "irrelevant", payload: refundPayload, header: refundHeader, wantStatus: http.StatusOK, wantBody: map[string]interface{}{"received": true, "status": "ignored"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, fx.router, http.MethodPost, "/webhooks/stripe", tt.payload, map[string]string{"Stripe-Signature": tt.header})
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			body := decodeBody(t, rec)
			for k, v := range tt.wantBody {
				if body[k] != v {
					t.Fatalf("expected %s=%v, got %v", k, v, body[k])
				}
			}
		})
	}

	if got := fx.repo.campaigns[fx.active.ID].RaisedAmount; got != 2500 {
		t.Fatalf("expected raised amount 2500, got %d", got)
	}
}

func TestStripeWebhook_ProcessorNotConfigured(t *testing.T) {
	fx := newAPIFixture(t, false, RouterOptions{})
	rec := doRequest(t, fx.router, http.MethodPost, "/webhooks/stripe", []byte("{}"), map[string]string{"Stripe-Signature": "t=1,v1=abc"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCreateCheckout_Responses(t *testing.T) {
	fx := newAPIFixture(t, true, RouterOptions{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{name: "success", body: `{"campaignId":"` + fx.active.ID.String() + `","amount":2500}`, wantStatus: http.StatusOK, wantKey: "url", wantValue: "https://checkout.stripe.com/c/pay/cs_api_1"},
		{name: "closed campaign", body: `{"campaignId":"` + fx.closed.ID.String() + `","amount":1000}`, wantStatus: http.StatusBadRequest, wantKey: "error", wantValue: "Campaign is not accepting donations"},
		{name: "unknown campaign", body: `{"campaignId":"` + uuid.NewString() + `","amount":1000}`, wantStatus: http.StatusNotFound, wantKey: "error", wantValue: "Campaign not found"},
		{name: "invalid amount", body: `{"campaignId":"` + fx.active.ID.String() + `","amount":0}`, wantStatus: http.StatusBadRequest, wantKey: "field", wantValue: "amount"},
		{name: "fractional amount", body: `{"campaignId":"` + fx.active.ID.String() + `","amount":10.5}`, wantStatus: http.StatusBadRequest, wantKey: "field", wantValue: "amount"},
		{name: "string amount", body: `{"campaignId":"` + fx.active.ID.String() + `","amount":"25"}`, wantStatus: http.StatusBadRequest, wantKey: "error", wantValue: "amount must be a whole number"},
		{name: "numeric campaign id", body: `{"campaignId":42,"amount":100}`, wantStatus: http.StatusBadRequest, wantKey: "field", wantValue: "campaignId"},
		{name: "malformed json", body: `{`, wantStatus: http.StatusBadRequest, wantKey: "error", wantValue: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, fx.router, http.MethodPost, "/donations/checkout", []byte(tt.body), map[string]string{"Content-Type": "application/json"})
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if body[tt.wantKey] != tt.wantValue {
				t.Fatalf("expected %s=%q, got %v", tt.wantKey, tt.wantValue, body[tt.wantKey])
			}
		})
	}
}

func TestCreateCheckout_ProcessorNotConfiguredIsGeneric500(t *testing.T) {
	fx := newAPIFixture(t, false, RouterOptions{})
	rec := doRequest(t, fx.router, http.MethodPost, "/donations/checkout", []byte(`{"campaignId":"`+fx.active.ID.String()+`","amount":2500}`), nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(strings.ToLower(rec.Body.String()), "stripe") {
		t.Fatalf("configuration details leaked: %s", rec.Body.String())
	}
}

func TestDirectDonationRoute_GatedByConfiguration(t *testing.T) {
	body := func(fx *apiFixture) []byte {
		return []byte(`{"campaignId":"` + fx.active.ID.String() + `","amount":700,"name":"Ada"}`)
	}

	disabled := newAPIFixture(t, false, RouterOptions{})
	if rec := doRequest(t, disabled.router, http.MethodPost, "/donations", body(disabled), nil); rec.Code == http.StatusCreated {
		t.Fatal("direct donations must not be routed when disabled")
	}
	if got := disabled.repo.campaigns[disabled.active.ID].RaisedAmount; got != 0 {
		t.Fatalf("expected no donation, raised=%d", got)
	}

	enabled := newAPIFixture(t, false, RouterOptions{DirectDonationsEnabled: true})
	rec := doRequest(t, enabled.router, http.MethodPost, "/donations", body(enabled), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	donation, ok := decodeBody(t, rec)["donation"].(map[string]interface{})
	if !ok || donation["amount"] != float64(700) || donation["status"] != domain.DonationStatusSucceeded {
		t.Fatalf("unexpected donation payload %s", rec.Body.String())
	}
	if got := enabled.repo.campaigns[enabled.active.ID].RaisedAmount; got != 700 {
		t.Fatalf("expected raised 700, got %d", got)
	}
}

func TestSessionFlow(t *testing.T) {
	fx := newAPIFixture(t, true, RouterOptions{})

	rec := doRequest(t, fx.router, http.MethodGet, "/payments/stripe/status", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	rec = doRequest(t, fx.router, http.MethodPost, "/auth/login", []byte(`{"email":"owner@example.com","password":"wrong"}`), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}

	rec = doRequest(t, fx.router, http.MethodPost, "/auth/login", []byte(`{"email":"owner@example.com","password":"hunter22"}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for login, got %d (%s)", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "PasswordHash") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatal("login response must not expose the password hash")
	}
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			session = c
		}
	}
	if session == nil || !session.HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", session)
	}

	rec = doRequest(t, fx.router, http.MethodGet, "/payments/stripe/status", nil, nil, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", rec.Code)
	}
	status := decodeBody(t, rec)
	if status["accountId"] != "acct_api_owner" || status["onboardingComplete"] != true {
		t.Fatalf("unexpected payout status %v", status)
	}

	rec = doRequest(t, fx.router, http.MethodPost, "/payments/stripe/connect", nil, nil, session)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "https://connect.stripe.com/setup/e/acct_api_owner" {
		t.Fatalf("expected redirect to onboarding, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = doRequest(t, fx.router, http.MethodPost, "/donations/checkout", []byte(`{"campaignId":"`+fx.active.ID.String()+`","amount":2500}`), nil, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for checkout, got %d", rec.Code)
	}
	if got := fx.processor.lastCheckout.Metadata[domain.MetadataKeyDonorUserID]; got != fx.owner.ID.String() {
		t.Fatalf("expected signed-in donor id in metadata, got %q", got)
	}

	rec = doRequest(t, fx.router, http.MethodDelete, "/auth/login", nil, nil, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for logout, got %d", rec.Code)
	}
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("expected session cookie to be cleared, got %+v", cleared)
	}
}

func TestSessionMiddleware_InvalidTokenIsAnonymous(t *testing.T) {
	fx := newAPIFixture(t, true, RouterOptions{})
	forged := NewSessionManager("another-secret", "")
	token, _, err := forged.Issue(fx.owner.ID, time.Now())
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	rec := doRequest(t, fx.router, http.MethodPost, "/donations/checkout", []byte(`{"campaignId":"`+fx.active.ID.String()+`","amount":2500}`), nil,
		&http.Cookie{Name: SessionCookieName, Value: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected anonymous checkout to succeed, got %d", rec.Code)
	}
	if got := fx.processor.lastCheckout.Metadata[domain.MetadataKeyDonorUserID]; got != "" {
		t.Fatalf("forged session must not identify a donor, got %q", got)
	}
}

func TestDonationRateLimitMiddleware(t *testing.T) {
	limiter := &limiterStub{allowed: false, retryAfter: 42}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("rate limited request must not reach the handler")
	})

	req := httptest.NewRequest(http.MethodPost, "/donations/checkout", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	rec := httptest.NewRecorder()
	DonationRateLimitMiddleware(limiter, app.DonationRouteCheckout)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "42" {
		t.Fatalf("expected Retry-After 42, got %q", rec.Header().Get("Retry-After"))
	}
	if len(limiter.subjects) != 1 || limiter.subjects[0] != "checkout/203.0.113.9" {
		t.Fatalf("expected route and client ip, got %v", limiter.subjects)
	}
}

func TestSessionManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	manager := NewSessionManager(testAuthSecret, "https://give.example.org")
	userID := uuid.New()

	token, _, err := manager.Issue(userID, time.Now())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	got, err := manager.Parse(token)
	if err != nil || got != userID {
		t.Fatalf("expected %s, got %s err=%v", userID, got, err)
	}

	expired, _, err := manager.Issue(userID, time.Now().Add(-8*24*time.Hour))
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := manager.Parse(expired); err == nil {
		t.Fatal("expected expired token to be rejected")
	}

	if _, err := NewSessionManager("other", "").Parse(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}

	if _, _, err := NewSessionManager("", "").Issue(userID, time.Now()); err != ErrSessionsDisabled {
		t.Fatalf("expected ErrSessionsDisabled, got %v", err)
	}
}

func TestCampaignWriteEndpoints(t *testing.T) {
	fx := newAPIFixture(t, true, RouterOptions{})
	createBody := []byte(`{"title":"Library roof","story":"The roof leaks every rainy season and the books suffer.","goalAmount":150000}`)

	rec := doRequest(t, fx.router, http.MethodPost, "/campaigns", createBody, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	rec = doRequest(t, fx.router, http.MethodPost, "/auth/login", []byte(`{"email":"owner@example.com","password":"hunter22"}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d", rec.Code)
	}
	session := rec.Result().Cookies()[0]

	rec = doRequest(t, fx.router, http.MethodPost, "/campaigns", []byte(`{"title":"ab","story":"short","goalAmount":1}`), nil, session)
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["field"] != "title" {
		t.Fatalf("expected title validation error, got %d %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, fx.router, http.MethodPost, "/campaigns", []byte(`{"title":"Library roof","story":"The roof leaks every rainy season.","goalAmount":"lots"}`), nil, session)
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["field"] != "goalAmount" {
		t.Fatalf("expected goalAmount type error, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, fx.router, http.MethodPost, "/campaigns", createBody, nil, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	created, ok := decodeBody(t, rec)["campaign"].(map[string]interface{})
	if !ok || created["status"] != domain.CampaignStatusDraft || !strings.HasPrefix(created["slug"].(string), "library-roof-") {
		t.Fatalf("unexpected campaign payload %s", rec.Body.String())
	}
	path := "/campaigns/" + created["id"].(string)

	rec = doRequest(t, fx.router, http.MethodPatch, path, []byte(`{"goalAmount":200000,"status":"active"}`), nil, session)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for update, got %d (%s)", rec.Code, rec.Body.String())
	}
	updated := decodeBody(t, rec)["campaign"].(map[string]interface{})
	if updated["goalAmount"] != float64(200000) || updated["status"] != domain.CampaignStatusActive || updated["title"] != "Library roof" {
		t.Fatalf("unexpected update payload %s", rec.Body.String())
	}

	rec = doRequest(t, fx.router, http.MethodDelete, path, nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous delete, got %d", rec.Code)
	}
	rec = doRequest(t, fx.router, http.MethodDelete, path, nil, nil, session)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["success"] != true {
		t.Fatalf("expected delete to succeed, got %d %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, fx.router, http.MethodGet, path, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected deleted campaign to be gone, got %d", rec.Code)
	}
}

package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/account"
	"github.com/stripe/stripe-go/v82/accountlink"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeGateway implements Processor on top of stripe-go. Each gateway carries its own
// key and backend instead of the package-level stripe.Key.
type StripeGateway struct {
	sessions     session.Client
	accounts     account.Client
	accountLinks accountlink.Client
}

// NewStripeGateway creates a gateway for the given secret key. A nil backend uses Stripe's API.
func NewStripeGateway(secretKey string, backend stripe.Backend) *StripeGateway {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	key := strings.TrimSpace(secretKey)
	return &StripeGateway{
		sessions:     session.Client{B: backend, Key: key},
		accounts:     account.Client{B: backend, Key: key},
		accountLinks: accountlink.Client{B: backend, Key: key},
	}
}

// CreateCheckoutSession creates a one-off card payment session.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	amount := req.Amount
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
					UnitAmount: &amount,
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata:   req.Metadata,
	}
	params.Context = ctx
	if req.ConnectedAccountID != "" {
		params.SetStripeAccount(req.ConnectedAccountID)
	}

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", describeStripeError(err))
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// CreateConnectedAccount creates an Express connected account for a campaign owner.
func (g *StripeGateway) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type: stripe.String(string(stripe.AccountTypeExpress)),
	}
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		params.Email = stripe.String(trimmed)
	}
	params.Context = ctx

	acct, err := g.accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe connected account: %w", describeStripeError(err))
	}
	return acct.ID, nil
}

// CreateOnboardingLink returns the hosted onboarding URL for a connected account.
func (g *StripeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := g.accountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe account link: %w", describeStripeError(err))
	}
	return link.URL, nil
}

// VerifyWebhook checks the Stripe-Signature header and decodes the event payload.
func (g *StripeGateway) VerifyWebhook(payload []byte, signatureHeader string, secret string) (*Event, error) {
	return parseStripeEvent(payload, signatureHeader, secret)
}

func parseStripeEvent(payload []byte, signatureHeader string, secret string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	event := &Event{
		ID:      evt.ID,
		Type:    string(evt.Type),
		Account: evt.Account,
	}
	if evt.Data == nil {
		return event, nil
	}

	switch event.Type {
	case EventCheckoutSessionCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
		}
		event.CheckoutSession = &CompletedCheckout{
			SessionID:     cs.ID,
			AmountTotal:   cs.AmountTotal,
			Currency:      string(cs.Currency),
			PaymentStatus: string(cs.PaymentStatus),
			Metadata:      cs.Metadata,
		}
	case EventAccountUpdated:
		var acct stripe.Account
		if err := json.Unmarshal(evt.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("%w: account: %v", ErrMalformedEvent, err)
		}
		event.AccountStatus = &AccountStatus{
			AccountID:        acct.ID,
			ChargesEnabled:   acct.ChargesEnabled,
			DetailsSubmitted: acct.DetailsSubmitted,
		}
	}
	return event, nil
}

func describeStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return fmt.Errorf("%s (%s): %w", stripeErr.Msg, stripeErr.Code, err)
	}
	return err
}

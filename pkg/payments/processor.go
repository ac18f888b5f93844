/**
 * @description
 * This package wraps the payment processor used for donations. The application layer
 * talks to the `Processor` interface only, so the processor can be absent at runtime
 * (no credentials configured) and replaced by stubs in tests.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 */
package payments

import (
	"context"
	"errors"
)

// Event kinds the service reacts to. Every other kind is acknowledged and ignored.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventAccountUpdated           = "account.updated"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

// Processor is the interface implemented by payment processor gateways.
type Processor interface {
	// CreateCheckoutSession opens a hosted checkout session. When ConnectedAccountID is
	// set the session is created on, and settles into, that connected account.
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	CreateConnectedAccount(ctx context.Context, email string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	// VerifyWebhook authenticates a webhook delivery against the shared secret and decodes it.
	VerifyWebhook(payload []byte, signatureHeader string, secret string) (*Event, error)
}

// CheckoutSessionRequest describes a single-item donation checkout.
type CheckoutSessionRequest struct {
	ConnectedAccountID string
	ProductName        string
	Amount             int64 // in cents
	Currency           string
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
}

// CheckoutSession is the processor's answer to a checkout request.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified webhook delivery. Exactly one of the typed payloads is set for the
// kinds listed above; both are nil for any other kind.
type Event struct {
	ID      string
	Type    string
	Account string

	CheckoutSession *CompletedCheckout
	AccountStatus   *AccountStatus
}

// CompletedCheckout carries the processor's authoritative record of a paid session.
type CompletedCheckout struct {
	SessionID     string
	AmountTotal   int64
	Currency      string
	PaymentStatus string
	Metadata      map[string]string
}

// AccountStatus is the onboarding state of a connected account.
type AccountStatus struct {
	AccountID        string
	ChargesEnabled   bool
	DetailsSubmitted bool
}

// OnboardingComplete reports whether the account may receive donations.
func (a *AccountStatus) OnboardingComplete() bool {
	return a != nil && a.ChargesEnabled && a.DetailsSubmitted
}

package app

import "errors"

// Error kinds. Handlers map these to HTTP status codes with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrStateConflict  = errors.New("state conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrConfiguration  = errors.New("configuration error")
	ErrForbidden      = errors.New("forbidden")
)

// kindError is a caller-facing error that belongs to one of the kinds above.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

var (
	ErrCampaignNotFound              = &kindError{kind: ErrNotFound, msg: "Campaign not found"}
	ErrCampaignNotAcceptingDonations = &kindError{kind: ErrStateConflict, msg: "Campaign is not accepting donations"}
	ErrPayoutNotConfigured           = &kindError{kind: ErrStateConflict, msg: "Organizer has not connected Stripe yet"}
	ErrProcessorUnavailable          = &kindError{kind: ErrConfiguration, msg: "payment processor is not configured"}
	ErrWebhookSecretMissing          = &kindError{kind: ErrConfiguration, msg: "webhook secret is not configured"}
	ErrMissingSignature              = &kindError{kind: ErrAuthentication, msg: "Missing stripe-signature header"}
	ErrInvalidSignature              = &kindError{kind: ErrAuthentication, msg: "Invalid signature"}
	ErrInvalidCredentials            = &kindError{kind: ErrAuthentication, msg: "Invalid email or password"}
	ErrUnknownSessionUser            = &kindError{kind: ErrAuthentication, msg: "Unauthorized"}
	ErrCampaignEditForbidden         = &kindError{kind: ErrForbidden, msg: "Forbidden"}
)

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

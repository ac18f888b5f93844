package domain

import "github.com/google/uuid"

// User roles.
const (
	UserRoleUser  = "USER"
	UserRoleAdmin = "ADMIN"
)

// User represents a registered account. Campaign owners carry their payout account here.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
}

// IsAdmin reports whether the user may act on campaigns they do not own.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// PayoutAccount is an owner's connected processor account.
type PayoutAccount struct {
	OwnerID            uuid.UUID `json:"ownerId"`
	StripeAccountID    *string   `json:"accountId"`
	OnboardingComplete bool      `json:"onboardingComplete"`
}

// CanReceiveFunds reports whether routed donations may settle into this account.
func (p *PayoutAccount) CanReceiveFunds() bool {
	return p != nil && p.StripeAccountID != nil && *p.StripeAccountID != "" && p.OnboardingComplete
}

// LoginRequest is the DTO for the session login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

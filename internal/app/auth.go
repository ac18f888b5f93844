package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DevifyPro/fundraising-app/internal/domain"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Authenticate verifies an email and password pair against the stored bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, invalid("email", "email is required")
	}
	if req.Password == "" {
		return nil, invalid("password", "password is required")
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ResolveSessionUser loads the user named by a verified session token.
func (s *Service) ResolveSessionUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUnknownSessionUser
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

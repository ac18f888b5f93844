package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionCookieName = "fundraising_session"
	sessionIssuer     = "fundraising-app"
	sessionTTL        = 7 * 24 * time.Hour
)

var ErrSessionsDisabled = errors.New("session secret is not configured")

// SessionManager issues and verifies the HS256 session tokens stored in the session cookie.
type SessionManager struct {
	secret       []byte
	secureCookie bool
}

// NewSessionManager creates a manager for secret. Cookies are marked Secure when the app
// is served over https.
func NewSessionManager(secret string, appBaseURL string) *SessionManager {
	return &SessionManager{
		secret:       []byte(strings.TrimSpace(secret)),
		secureCookie: strings.HasPrefix(strings.ToLower(strings.TrimSpace(appBaseURL)), "https://"),
	}
}

// Enabled reports whether a signing secret is configured.
func (m *SessionManager) Enabled() bool {
	return m != nil && len(m.secret) > 0
}

// Issue signs a session token for userID valid for seven days from now.
func (m *SessionManager) Issue(userID uuid.UUID, now time.Time) (string, time.Time, error) {
	if !m.Enabled() {
		return "", time.Time{}, ErrSessionsDisabled
	}
	expiresAt := now.Add(sessionTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies a session token and returns the user id it names.
func (m *SessionManager) Parse(tokenString string) (uuid.UUID, error) {
	if !m.Enabled() {
		return uuid.Nil, ErrSessionsDisabled
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, errors.New("invalid session token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session subject: %w", err)
	}
	return userID, nil
}

// SetCookie writes the session cookie carrying token.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

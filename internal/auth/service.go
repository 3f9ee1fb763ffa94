// Package auth implements admin login and the signed session token.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/staffphoto/service/internal/config"
)

// SessionTTL is how long an admin session stays valid.
const SessionTTL = 24 * time.Hour

// devPassword is accepted outside production when no password hash is configured.
const devPassword = "admin123"

// ErrInvalidCredentials is returned when the username or password is wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrInvalidToken is returned when a session token is missing, malformed, expired or forged.
var ErrInvalidToken = errors.New("invalid or expired session")

// Session is an issued admin session.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Service contains the business logic for admin authentication.
type Service struct {
	username     string
	passwordHash string
	secret       []byte
	now          func() time.Time
}

// NewService creates a new auth Service from cfg. Without ADMIN_PASSWORD_HASH
// a development password is hashed at startup; production refuses to start.
func NewService(cfg *config.Config) (*Service, error) {
	hash := cfg.AdminPasswordHash
	if hash == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("auth: ADMIN_PASSWORD_HASH must be set in production")
		}
		var err error
		if hash, err = HashPassword(devPassword); err != nil {
			return nil, fmt.Errorf("auth: hash development password: %w", err)
		}
		log.Printf("[auth] ADMIN_PASSWORD_HASH not set, using the development password for %q", cfg.AdminUsername)
	}

	return &Service{
		username:     cfg.AdminUsername,
		passwordHash: hash,
		secret:       []byte(cfg.SessionSecret),
		now:          time.Now,
	}, nil
}

// Login verifies the admin credentials and issues a session token.
func (s *Service) Login(_ context.Context, username, password string) (*Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK, err := VerifyPassword(password, s.passwordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.issueToken(username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires}, nil
}

// Verify validates a session token and returns its subject.
func (s *Service) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject != s.username {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// issueToken creates a signed JWT for the admin user.
func (s *Service) issueToken(subject string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(SessionTTL)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Package auth issues and validates bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity is the lifetime of a bearer token.
const DefaultTokenValidity = 30 * time.Minute

// TokenService signs and verifies HS256 tokens whose only payload is the
// user id (subject) and the issuer. Build one at startup and pass it around.
type TokenService struct {
	secret   []byte
	issuer   string
	validity time.Duration
	now      func() time.Time
}

// NewTokenService constructs a TokenService. A non-positive validity falls
// back to DefaultTokenValidity.
func NewTokenService(secret []byte, issuer string, validity time.Duration) *TokenService {
	if validity <= 0 {
		validity = DefaultTokenValidity
	}
	return &TokenService{secret: secret, issuer: issuer, validity: validity, now: time.Now}
}

// Issue returns a signed token for userID expiring after the configured validity.
func (s *TokenService) Issue(userID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Validate checks signature, algorithm, issuer and expiry and returns the
// embedded user id. All failures match common.ErrInvalidToken; expired
// tokens also match common.ErrTokenExpired.
func (s *TokenService) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}

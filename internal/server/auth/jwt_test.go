package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func newTestService(secret string, at time.Time) *TokenService {
	s := NewTokenService([]byte(secret), "textdrive", DefaultTokenValidity)
	s.now = func() time.Time { return at }
	return s
}

func TestIssueAndValidate_Success(t *testing.T) {
	t.Parallel()

	s := NewTokenService([]byte("super-secret"), "textdrive", time.Hour)
	userID := "5b0e6a3c-8c1e-4a7c-9a59-0b7f8d0d2f11"

	tok, err := s.Issue(userID)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	gotUserID, err := s.Validate(tok)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if gotUserID != userID {
		t.Fatalf("userID mismatch: got %q want %q", gotUserID, userID)
	}
}

func TestValidate_ExpiresAfterThirtyMinutes(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	s := newTestService("secret", issuedAt)

	tok, err := s.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	s.now = func() time.Time { return issuedAt.Add(29 * time.Minute) }
	if _, err := s.Validate(tok); err != nil {
		t.Fatalf("token must still be valid at 29m: %v", err)
	}

	s.now = func() time.Time { return issuedAt.Add(31 * time.Minute) }
	_, err = s.Validate(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService([]byte("right-secret"), "textdrive", time.Hour).Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewTokenService([]byte("wrong-secret"), "textdrive", time.Hour).Validate(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestValidate_WrongIssuer(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService([]byte("k"), "someone-else", time.Hour).Issue("u3")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewTokenService([]byte("k"), "textdrive", time.Hour).Validate(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "textdrive",
		Subject:   "u4",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tok, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	_, err = NewTokenService([]byte("k"), "textdrive", time.Hour).Validate(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestValidate_MissingSubject(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService([]byte("k"), "textdrive", time.Hour).Issue("")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewTokenService([]byte("k"), "textdrive", time.Hour).Validate(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestValidate_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService([]byte("k"), "textdrive", time.Hour).Validate("not.a.jwt")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenService_DefaultValidity(t *testing.T) {
	t.Parallel()

	s := NewTokenService([]byte("k"), "textdrive", 0)
	if s.validity != DefaultTokenValidity {
		t.Fatalf("validity = %v, want %v", s.validity, DefaultTokenValidity)
	}
}

package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/textdrive/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the salted bcrypt hash of plain. bcrypt only looks at
// the first 72 bytes, so longer passwords are rejected as invalid input.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", common.ErrorInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

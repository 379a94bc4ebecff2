package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength matches the sign-up form's rule.
const MinPasswordLength = 6

// bcrypt ignores everything past 72 bytes, so longer passwords are refused
// rather than silently truncated.
const maxPasswordBytes = 72

var ErrWeakPassword = errors.New("password rejected")

// BcryptCost is the work factor for new hashes.
var BcryptCost = 12

func ValidatePassword(pw string) error {
	switch {
	case len(pw) < MinPasswordLength:
		return fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, MinPasswordLength)
	case len(pw) > maxPasswordBytes:
		return fmt.Errorf("%w: longer than %d bytes", ErrWeakPassword, maxPasswordBytes)
	}
	return nil
}

func HashPassword(pw string) (string, error) {
	if err := ValidatePassword(pw); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	return string(b), err
}

// CheckPassword reports whether pw matches hashed. An empty hash (an account
// created without a password) never matches.
func CheckPassword(hashed, pw string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

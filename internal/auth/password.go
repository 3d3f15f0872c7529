package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"taskmanager/internal/constants"
)

var (
	ErrPasswordTooShort     = fmt.Errorf("password must be at least %d characters", constants.PasswordMinLength)
	ErrPasswordContainsWord = fmt.Errorf("password can not contain %q", constants.PasswordForbiddenSubword)
	ErrPasswordTooLong      = fmt.Errorf("password must be at most %d bytes", constants.PasswordMaxBytes)
)

// NormalizePassword trims surrounding whitespace before validation and hashing.
func NormalizePassword(password string) string {
	return strings.TrimSpace(password)
}

// ValidatePassword applies the password rules to an already normalized password.
// The minimum counts characters; the maximum counts bytes because bcrypt
// only reads the first 72.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < constants.PasswordMinLength {
		return ErrPasswordTooShort
	}
	if len(password) > constants.PasswordMaxBytes {
		return ErrPasswordTooLong
	}
	if strings.Contains(password, constants.PasswordForbiddenSubword) {
		return ErrPasswordContainsWord
	}
	return nil
}

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether password matches hash. Mismatches are not errors.
func (h *PasswordHasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("comparing password: %w", err)
	}
	return true, nil
}

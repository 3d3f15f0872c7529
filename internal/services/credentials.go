package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"taskmanager/internal/auth"
	"taskmanager/internal/constants"
	"taskmanager/internal/db"
	"taskmanager/internal/email"
	"taskmanager/internal/models"
)

var fieldValidator = validator.New()

// CredentialStore owns registration and login.
type CredentialStore struct {
	users    *db.UserRepository
	hasher   *auth.PasswordHasher
	notifier email.Notifier

	// dummyHash is compared against when no user matches, so an unknown
	// email costs the same bcrypt work as a wrong password.
	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialStore(users *db.UserRepository, hasher *auth.PasswordHasher, notifier email.Notifier) *CredentialStore {
	return &CredentialStore{
		users:    users,
		hasher:   hasher,
		notifier: notifier,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Age      int
}

func (s *CredentialStore) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	address, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	password := auth.NormalizePassword(in.Password)
	if err := auth.ValidatePassword(password); err != nil {
		return nil, invalid("password", "%s", err.Error())
	}
	if err := validateAge(in.Age); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, db.CreateUserParams{
		Name:         name,
		Email:        address,
		PasswordHash: hash,
		Age:          in.Age,
	})
	if errors.Is(err, db.ErrDuplicate) {
		return nil, invalid("email", "email is already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	if err := s.notifier.NotifyWelcome(ctx, user.Email, user.Name); err != nil {
		slog.Warn("welcome notification failed", "error", err, "user_id", user.ID)
	}

	return user, nil
}

// Verify returns the user for a matching email and password. Every failure
// to match yields ErrUnableToLogin so callers cannot tell which part was wrong.
func (s *CredentialStore) Verify(ctx context.Context, address, password string) (*models.User, error) {
	address = strings.ToLower(strings.TrimSpace(address))

	user, err := s.users.FindByEmail(ctx, address)
	if errors.Is(err, db.ErrNotFound) {
		if hash := s.timingHash(); hash != "" {
			_, _ = s.hasher.Compare(hash, auth.NormalizePassword(password))
		}
		return nil, ErrUnableToLogin
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, auth.NormalizePassword(password))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnableToLogin
	}

	return user, nil
}

func (s *CredentialStore) timingHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			slog.Error("failed to prepare login timing hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// NormalizeEmail trims, lowercases and validates an address.
func NormalizeEmail(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return "", invalid("email", "email is required")
	}
	if err := fieldValidator.Var(address, fmt.Sprintf("email,max=%d", constants.EmailMaxLength)); err != nil {
		return "", invalid("email", "Email is invalid")
	}
	return address, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "name is required")
	}
	if utf8.RuneCountInString(name) > constants.NameMaxLength {
		return "", invalid("name", "name must be at most %d characters", constants.NameMaxLength)
	}
	return name, nil
}

func validateAge(age int) error {
	if age < 0 {
		return invalid("age", "Age must be a positive number")
	}
	return nil
}

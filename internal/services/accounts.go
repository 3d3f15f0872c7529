package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"taskmanager/internal/auth"
	"taskmanager/internal/db"
	"taskmanager/internal/email"
	"taskmanager/internal/imaging"
	"taskmanager/internal/models"
)

// ProfileFields lists the user attributes a client may change.
var ProfileFields = []string{"name", "email", "password", "age"}

type AccountService struct {
	database   *db.DB
	users      *db.UserRepository
	tokens     *db.SessionTokenRepository
	tasks      *db.TaskRepository
	hasher     *auth.PasswordHasher
	notifier   email.Notifier
	avatarEdge int
}

func NewAccountService(
	database *db.DB,
	users *db.UserRepository,
	tokens *db.SessionTokenRepository,
	tasks *db.TaskRepository,
	hasher *auth.PasswordHasher,
	notifier email.Notifier,
	avatarEdge int,
) *AccountService {
	return &AccountService{
		database:   database,
		users:      users,
		tokens:     tokens,
		tasks:      tasks,
		hasher:     hasher,
		notifier:   notifier,
		avatarEdge: avatarEdge,
	}
}

type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

func (s *AccountService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// Update changes the supplied profile fields. A new password is hashed
// before it is stored.
func (s *AccountService) Update(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	params := db.UpdateUserParams{
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Age:          user.Age,
	}

	if in.Name != nil {
		if params.Name, err = normalizeName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if params.Email, err = NormalizeEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if in.Age != nil {
		if err := validateAge(*in.Age); err != nil {
			return nil, err
		}
		params.Age = *in.Age
	}
	if in.Password != nil {
		password := auth.NormalizePassword(*in.Password)
		if err := auth.ValidatePassword(password); err != nil {
			return nil, invalid("password", "%s", err.Error())
		}
		if params.PasswordHash, err = s.hasher.Hash(password); err != nil {
			return nil, err
		}
	}

	err = s.users.Update(ctx, userID, params)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, invalid("email", "email is already registered")
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	return s.Get(ctx, userID)
}

// Delete removes the account. Owned tasks and sessions go in the same
// transaction as the user row, before it.
func (s *AccountService) Delete(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var removedTasks int64
	err = s.database.InTx(ctx, func(tx *sql.Tx) error {
		n, err := s.tasks.WithTx(tx).DeleteAllForOwner(ctx, userID)
		if err != nil {
			return err
		}
		removedTasks = n

		if _, err := s.tokens.WithTx(tx).RemoveAll(ctx, userID); err != nil {
			return err
		}

		return s.users.WithTx(tx).Delete(ctx, userID)
	})
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting account: %w", err)
	}

	slog.Info("account deleted", "user_id", userID, "tasks_removed", removedTasks)

	if err := s.notifier.NotifyCancellation(ctx, user.Email, user.Name); err != nil {
		slog.Warn("cancellation notification failed", "error", err, "user_id", userID)
	}

	return user, nil
}

// SetAvatar replaces the user's avatar with a square PNG thumbnail of src.
func (s *AccountService) SetAvatar(ctx context.Context, userID string, src io.Reader) (*models.User, error) {
	checked, err := imaging.Sniff(src)
	if err != nil {
		return nil, avatarError(err)
	}

	thumbnail, err := imaging.Thumbnail(checked, s.avatarEdge)
	if err != nil {
		return nil, avatarError(err)
	}

	if err := s.users.SetAvatar(ctx, userID, thumbnail); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storing avatar: %w", err)
	}

	return s.Get(ctx, userID)
}

func (s *AccountService) ClearAvatar(ctx context.Context, userID string) (*models.User, error) {
	if err := s.users.SetAvatar(ctx, userID, nil); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("clearing avatar: %w", err)
	}
	return s.Get(ctx, userID)
}

// Avatar returns the stored PNG, or ErrNotFound when the user or the avatar
// does not exist.
func (s *AccountService) Avatar(ctx context.Context, userID string) ([]byte, error) {
	if !db.IsValidID(db.UserIDPrefix, userID) {
		return nil, ErrNotFound
	}

	avatar, err := s.users.GetAvatar(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	return avatar, err
}

func avatarError(err error) error {
	switch {
	case errors.Is(err, imaging.ErrExecutableFile),
		errors.Is(err, imaging.ErrDisallowedType),
		errors.Is(err, imaging.ErrInvalidImage):
		return invalid("avatar", "Only image files are accepted (jpg/jpeg/png)")
	default:
		return fmt.Errorf("processing avatar: %w", err)
	}
}

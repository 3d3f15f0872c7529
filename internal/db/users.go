package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskmanager/internal/models"
)

const userColumns = `id, name, email, password_hash, age, avatar IS NOT NULL, created_at, updated_at`

type UserRepository struct {
	q Querier
}

func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

// WithTx returns a repository bound to tx.
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Age          int
}

func (r *UserRepository) Create(ctx context.Context, p CreateUserParams) (*models.User, error) {
	id, err := GenerateID(UserIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("generating user ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, age, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.Name, p.Email, p.PasswordHash, p.Age, now, now,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return &models.User{
		ID:           id,
		Name:         p.Name,
		Email:        p.Email,
		Age:          p.Age,
		PasswordHash: p.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    &now,
	}, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

type UpdateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Age          int
}

// Update overwrites every profile column of the user.
func (r *UserRepository) Update(ctx context.Context, id string, p UpdateUserParams) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, age = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Email, p.PasswordHash, p.Age, time.Now().UTC(), id,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("updating user: %w", err)
	}
	return checkRowsAffected(result)
}

// SetAvatar stores avatar inline on the user row; a nil avatar clears it.
func (r *UserRepository) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	var value any
	if avatar != nil {
		value = avatar
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE users SET avatar = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating avatar: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	var avatar []byte
	err := r.q.QueryRowContext(ctx, `SELECT avatar FROM users WHERE id = ?`, id).Scan(&avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying avatar: %w", err)
	}
	if len(avatar) == 0 {
		return nil, ErrNotFound
	}
	return avatar, nil
}

// Delete removes the user row. Owned tasks and session tokens must be
// removed first; the foreign keys reject the delete otherwise.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	var updatedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Age,
		&u.HasAvatar,
		&u.CreatedAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u.UpdatedAt = nullTimeToPtr(updatedAt)

	return &u, nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskmanager/internal/models"
)

// SessionTokenRepository persists each user's list of active session
// tokens. Only the SHA-256 of a token is stored.
type SessionTokenRepository struct {
	q Querier
}

func NewSessionTokenRepository(q Querier) *SessionTokenRepository {
	return &SessionTokenRepository{q: q}
}

func (r *SessionTokenRepository) WithTx(tx *sql.Tx) *SessionTokenRepository {
	return &SessionTokenRepository{q: tx}
}

func (r *SessionTokenRepository) Add(ctx context.Context, userID, tokenHash string) (*models.SessionToken, error) {
	id, err := GenerateID(SessionIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("generating session token ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO session_tokens (id, user_id, token_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, tokenHash, now,
	)
	if err != nil {
		if IsUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		if IsForeignKeyConstraintError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("creating session token: %w", err)
	}

	return &models.SessionToken{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: now,
	}, nil
}

// Exists reports whether tokenHash is in userID's active list.
func (r *SessionTokenRepository) Exists(ctx context.Context, userID, tokenHash string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_tokens WHERE user_id = ? AND token_hash = ?`,
		userID, tokenHash,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking session token: %w", err)
	}
	return count > 0, nil
}

// Remove deletes one token and reports whether it was present.
func (r *SessionTokenRepository) Remove(ctx context.Context, userID, tokenHash string) (bool, error) {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM session_tokens WHERE user_id = ? AND token_hash = ?`,
		userID, tokenHash,
	)
	if err != nil {
		return false, fmt.Errorf("revoking session token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *SessionTokenRepository) RemoveAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM session_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoking user session tokens: %w", err)
	}
	return result.RowsAffected()
}

func (r *SessionTokenRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_tokens WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting session tokens: %w", err)
	}
	return count, nil
}

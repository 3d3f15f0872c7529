package services

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/internal/auth"
	"taskmanager/internal/db"
	"taskmanager/internal/models"
)

// SessionManager issues bearer tokens and tracks which ones are still live.
// A token is accepted only if its signature verifies and it is still in
// the owner's active list, so revocation takes effect immediately.
type SessionManager struct {
	signer *auth.TokenSigner
	users  *db.UserRepository
	tokens *db.SessionTokenRepository
}

func NewSessionManager(signer *auth.TokenSigner, users *db.UserRepository, tokens *db.SessionTokenRepository) *SessionManager {
	return &SessionManager{
		signer: signer,
		users:  users,
		tokens: tokens,
	}
}

func (m *SessionManager) Issue(ctx context.Context, userID string) (string, error) {
	token, err := m.signer.Sign(userID)
	if err != nil {
		return "", err
	}

	if _, err := m.tokens.Add(ctx, userID, auth.HashToken(token)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storing session token: %w", err)
	}

	return token, nil
}

// Revoke removes one token. Revoking a token that is not active is a no-op.
func (m *SessionManager) Revoke(ctx context.Context, userID, token string) error {
	if _, err := m.tokens.Remove(ctx, userID, auth.HashToken(token)); err != nil {
		return err
	}
	return nil
}

func (m *SessionManager) RevokeAll(ctx context.Context, userID string) error {
	if _, err := m.tokens.RemoveAll(ctx, userID); err != nil {
		return err
	}
	return nil
}

// Resolve maps a bearer token to its user.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, unauthenticated(AuthReasonMissingToken)
	}

	userID, err := m.signer.Verify(token)
	if err != nil {
		return nil, unauthenticated(AuthReasonInvalidToken)
	}

	user, err := m.users.FindByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, unauthenticated(AuthReasonUnknownUser)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session user: %w", err)
	}

	active, err := m.tokens.Exists(ctx, user.ID, auth.HashToken(token))
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, unauthenticated(AuthReasonRevoked)
	}

	return user, nil
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/auth"
)

func requireAuthReason(t *testing.T, err error, reason string) {
	t.Helper()

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr), "err = %v", err)
	assert.Equal(t, reason, authErr.Reason)
	assert.Equal(t, "Please authenticate", authErr.Message)
}

func TestSessionIssueAndResolve(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "Ada", "ada@example.com")
	token := env.login(t, user)

	resolved, err := env.sessions.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	stored, err := env.tokens.Exists(context.Background(), user.ID, auth.HashToken(token))
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestSessionResolveRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Resolve(ctx, "")
	requireAuthReason(t, err, AuthReasonMissingToken)

	_, err = env.sessions.Resolve(ctx, "not.a.jwt")
	requireAuthReason(t, err, AuthReasonInvalidToken)

	forged, err := auth.NewTokenSigner("ffffffffffffffffffffffffffffffff", 0).Sign("usr_whoever")
	require.NoError(t, err)
	_, err = env.sessions.Resolve(ctx, forged)
	requireAuthReason(t, err, AuthReasonInvalidToken)
}

func TestSessionRevokedTokenFailsDespiteValidSignature(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "Ada", "ada@example.com")
	ctx := context.Background()

	first := env.login(t, user)
	second := env.login(t, user)
	require.NotEqual(t, first, second)

	require.NoError(t, env.sessions.Revoke(ctx, user.ID, first))

	_, err := env.sessions.Resolve(ctx, first)
	requireAuthReason(t, err, AuthReasonRevoked)

	_, err = env.sessions.Resolve(ctx, second)
	assert.NoError(t, err, "other sessions stay live")

	assert.NoError(t, env.sessions.Revoke(ctx, user.ID, first), "revoke is idempotent")
}

func TestSessionRevokeAll(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "Ada", "ada@example.com")
	ctx := context.Background()

	tokens := []string{env.login(t, user), env.login(t, user), env.login(t, user)}

	require.NoError(t, env.sessions.RevokeAll(ctx, user.ID))

	for _, token := range tokens {
		_, err := env.sessions.Resolve(ctx, token)
		requireAuthReason(t, err, AuthReasonRevoked)
	}

	count, err := env.tokens.CountForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSessionIssueForUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Issue(context.Background(), "usr_000000000000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

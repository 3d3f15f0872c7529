package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestTaskCreateSetsOwner(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register(t, "Ada", "ada@example.com")

	task, err := env.tasks.Create(context.Background(), ada.ID, TaskInput{Description: "  write spec  "})
	require.NoError(t, err)

	assert.Equal(t, ada.ID, task.OwnerID)
	assert.Equal(t, "write spec", task.Description)
	assert.False(t, task.Completed)
}

func TestTaskDescriptionStoredVerbatim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@example.com")

	for _, description := range []string{
		"check if a<b holds",
		"rename <title> tag",
		"escape &amp; entity",
	} {
		t.Run(description, func(t *testing.T) {
			created, err := env.tasks.Create(ctx, ada.ID, TaskInput{Description: "  " + description + " "})
			require.NoError(t, err)
			assert.Equal(t, description, created.Description)

			got, err := env.tasks.Get(ctx, ada.ID, created.ID)
			require.NoError(t, err)
			assert.Equal(t, description, got.Description)
		})
	}
}

func TestTaskCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register(t, "Ada", "ada@example.com")

	_, err := env.tasks.Create(context.Background(), ada.ID, TaskInput{Description: "   "})

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "description", validationErr.Field)
}

func TestTaskNonOwnerLooksLikeMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@example.com")
	bob := env.register(t, "Bob", "bob@example.com")

	task, err := env.tasks.Create(ctx, ada.ID, TaskInput{Description: "private"})
	require.NoError(t, err)

	const missingID = "tsk_000000000000000000000000"

	for _, id := range []string{task.ID, missingID} {
		_, err = env.tasks.Get(ctx, bob.ID, id)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = env.tasks.Update(ctx, bob.ID, id, TaskPatch{Completed: ptr(true)})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = env.tasks.Delete(ctx, bob.ID, id)
		assert.ErrorIs(t, err, ErrNotFound)
	}

	listed, err := env.tasks.List(ctx, bob.ID, TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	still, err := env.tasks.Get(ctx, ada.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, still.Completed)
}

func TestTaskMalformedIDIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register(t, "Ada", "ada@example.com")

	_, err := env.tasks.Get(context.Background(), ada.ID, "not-an-id")

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "Invalid task ID", validationErr.Message)
}

func TestTaskUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@example.com")

	task, err := env.tasks.Create(ctx, ada.ID, TaskInput{Description: "draft"})
	require.NoError(t, err)

	updated, err := env.tasks.Update(ctx, ada.ID, task.ID, TaskPatch{Description: ptr("final"), Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Description)
	assert.True(t, updated.Completed)

	_, err = env.tasks.Update(ctx, ada.ID, task.ID, TaskPatch{Description: ptr("")})
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))

	deleted, err := env.tasks.Delete(ctx, ada.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", deleted.Description)

	_, err = env.tasks.Get(ctx, ada.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskListQuery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@example.com")

	for _, in := range []TaskInput{
		{Description: "b"},
		{Description: "a", Completed: true},
		{Description: "c"},
	} {
		_, err := env.tasks.Create(ctx, ada.ID, in)
		require.NoError(t, err)
	}

	done, err := env.tasks.List(ctx, ada.ID, TaskQuery{Completed: ptr(true)})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "a", done[0].Description)

	sorted, err := env.tasks.List(ctx, ada.ID, TaskQuery{SortBy: "description", SortDesc: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, "c", sorted[0].Description)
	assert.Equal(t, "b", sorted[1].Description)

	skipped, err := env.tasks.List(ctx, ada.ID, TaskQuery{Skip: 2})
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "c", skipped[0].Description)
}

func TestTaskListRejectsBadQuery(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register(t, "Ada", "ada@example.com")

	for _, q := range []TaskQuery{
		{SortBy: "owner"},
		{Limit: -1},
		{Skip: -5},
	} {
		_, err := env.tasks.List(context.Background(), ada.ID, q)
		var validationErr *ValidationError
		assert.True(t, errors.As(err, &validationErr), "query %+v", q)
	}
}

func TestCheckAllowedFields(t *testing.T) {
	assert.NoError(t, CheckAllowedFields([]string{"description"}, TaskFields...))
	assert.NoError(t, CheckAllowedFields(nil, TaskFields...))

	err := CheckAllowedFields([]string{"owner", "description", "_id"}, TaskFields...)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "Invalid updates: _id, owner", validationErr.Message)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"taskmanager/internal/constants"
	"taskmanager/internal/db"
	"taskmanager/internal/models"
)

// TaskFields lists the task attributes a client may set.
var TaskFields = []string{"description", "completed"}

// TaskService scopes every task operation to the requesting owner. A task
// that belongs to another user is indistinguishable from one that does not
// exist.
type TaskService struct {
	tasks *db.TaskRepository
}

func NewTaskService(tasks *db.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks}
}

type TaskInput struct {
	Description string
	Completed   bool
}

type TaskPatch struct {
	Description *string
	Completed   *bool
}

type TaskQuery struct {
	Completed *bool
	SortBy    string
	SortDesc  bool
	Limit     int
	Skip      int
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskInput) (*models.Task, error) {
	description, err := normalizeDescription(in.Description)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Create(ctx, ownerID, description, in.Completed)
	if errors.Is(err, db.ErrNotFound) {
		return nil, invalid("owner", "owner does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string, q TaskQuery) ([]*models.Task, error) {
	if q.SortBy != "" && !db.IsSortableTaskField(q.SortBy) {
		return nil, invalid("sortBy", "cannot sort by %q", q.SortBy)
	}
	if q.Limit < 0 {
		return nil, invalid("limit", "limit must not be negative")
	}
	if q.Skip < 0 {
		return nil, invalid("skip", "skip must not be negative")
	}

	tasks, err := s.tasks.List(ctx, ownerID, db.TaskListParams{
		Completed: q.Completed,
		SortField: q.SortBy,
		SortDesc:  q.SortDesc,
		Limit:     q.Limit,
		Skip:      q.Skip,
	})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	if err := checkTaskID(taskID); err != nil {
		return nil, err
	}
	return translate(s.tasks.FindByID(ctx, ownerID, taskID))
}

func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, patch TaskPatch) (*models.Task, error) {
	if err := checkTaskID(taskID); err != nil {
		return nil, err
	}

	params := db.UpdateTaskParams{Completed: patch.Completed}
	if patch.Description != nil {
		description, err := normalizeDescription(*patch.Description)
		if err != nil {
			return nil, err
		}
		params.Description = &description
	}

	return translate(s.tasks.Update(ctx, ownerID, taskID, params))
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	if err := checkTaskID(taskID); err != nil {
		return nil, err
	}
	return translate(s.tasks.Delete(ctx, ownerID, taskID))
}

func checkTaskID(id string) error {
	if !db.IsValidID(db.TaskIDPrefix, id) {
		return invalid("id", "Invalid task ID")
	}
	return nil
}

func normalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", invalid("description", "description is required")
	}
	if utf8.RuneCountInString(description) > constants.DescriptionMaxLength {
		return "", invalid("description", "description must be at most %d characters", constants.DescriptionMaxLength)
	}
	return description, nil
}

func translate(task *models.Task, err error) (*models.Task, error) {
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmanager/internal/models"
)

const taskColumns = `id, owner_id, description, completed, created_at, updated_at`

// sortColumns maps the public sort keys onto column names. Anything not
// listed here is never interpolated into SQL.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

// IsSortableTaskField reports whether field may be passed as TaskListParams.SortField.
func IsSortableTaskField(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// TaskRepository reads and writes tasks. Every query is filtered by owner;
// a task owned by someone else is reported as ErrNotFound.
type TaskRepository struct {
	q Querier
}

func NewTaskRepository(q Querier) *TaskRepository {
	return &TaskRepository{q: q}
}

func (r *TaskRepository) WithTx(tx *sql.Tx) *TaskRepository {
	return &TaskRepository{q: tx}
}

func (r *TaskRepository) Create(ctx context.Context, ownerID, description string, completed bool) (*models.Task, error) {
	id, err := GenerateID(TaskIDPrefix)
	if err != nil {
		return nil, fmt.Errorf("generating task ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO tasks (id, owner_id, description, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerID, description, completed, now, now,
	)
	if err != nil {
		if IsForeignKeyConstraintError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("creating task: %w", err)
	}

	return &models.Task{
		ID:          id,
		Description: description,
		Completed:   completed,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   &now,
	}, nil
}

type TaskListParams struct {
	Completed *bool
	SortField string
	SortDesc  bool
	// Limit <= 0 means no limit.
	Limit int
	Skip  int
}

func (r *TaskRepository) List(ctx context.Context, ownerID string, p TaskListParams) ([]*models.Task, error) {
	var b strings.Builder
	args := []any{ownerID}

	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ?`)
	if p.Completed != nil {
		b.WriteString(` AND completed = ?`)
		args = append(args, *p.Completed)
	}

	if column, ok := sortColumns[p.SortField]; ok {
		direction := "ASC"
		if p.SortDesc {
			direction = "DESC"
		}
		fmt.Fprintf(&b, ` ORDER BY %s %s, rowid ASC`, column, direction)
	} else {
		b.WriteString(` ORDER BY rowid ASC`)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	skip := p.Skip
	if skip < 0 {
		skip = 0
	}
	b.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, limit, skip)

	rows, err := r.q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	return scanTask(row)
}

type UpdateTaskParams struct {
	Description *string
	Completed   *bool
}

// Update applies the non-nil fields and returns the stored task.
func (r *TaskRepository) Update(ctx context.Context, ownerID, id string, p UpdateTaskParams) (*models.Task, error) {
	result, err := r.q.ExecContext(ctx,
		`UPDATE tasks
            SET description = COALESCE(?, description),
                completed = COALESCE(?, completed),
                updated_at = ?
          WHERE id = ? AND owner_id = ?`,
		nullableString(p.Description), nullableBool(p.Completed), time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	if err := checkRowsAffected(result); err != nil {
		return nil, err
	}

	return r.FindByID(ctx, ownerID, id)
}

// Delete removes the task and returns it as it was.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) (*models.Task, error) {
	task, err := r.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	result, err := r.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("deleting task: %w", err)
	}
	if err := checkRowsAffected(result); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *TaskRepository) DeleteAllForOwner(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("deleting owner tasks: %w", err)
	}
	return result.RowsAffected()
}

func (r *TaskRepository) CountForOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE owner_id = ?`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var updatedAt sql.NullTime

	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.UpdatedAt = nullTimeToPtr(updatedAt)
	return &t, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

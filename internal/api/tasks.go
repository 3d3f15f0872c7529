package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"taskmanager/internal/services"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type CreateTaskRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
	Completed   bool   `json:"completed"`
}

type UpdateTaskRequest struct {
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Completed   *bool   `json:"completed"`
}

// POST /api/v1/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	var req CreateTaskRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), user.ID, services.TaskInput{
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// GET /api/v1/tasks?completed=true&sortBy=createdAt:desc&limit=10&skip=0
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	query, err := parseTaskQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tasks, err := h.tasks.List(r.Context(), user.ID, query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// GET /api/v1/tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	task, err := h.tasks.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// PATCH /api/v1/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	var req UpdateTaskRequest
	if err := decodePatch(r.Body, &req, services.TaskFields...); err != nil {
		writeServiceError(w, r, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), user.ID, chi.URLParam(r, "id"), services.TaskPatch{
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// DELETE /api/v1/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	task, err := h.tasks.Delete(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func parseTaskQuery(values url.Values) (services.TaskQuery, error) {
	var q services.TaskQuery

	if raw := values.Get("completed"); raw != "" {
		completed := raw == "true"
		q.Completed = &completed
	}

	if raw := values.Get("sortBy"); raw != "" {
		field, direction, _ := strings.Cut(raw, ":")
		q.SortBy = field
		q.SortDesc = direction == "desc"
	}

	var err error
	if q.Limit, err = parseCount(values, "limit"); err != nil {
		return q, err
	}
	if q.Skip, err = parseCount(values, "skip"); err != nil {
		return q, err
	}

	return q, nil
}

func parseCount(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &services.ValidationError{Field: key, Message: key + " must be an integer"}
	}
	return n, nil
}

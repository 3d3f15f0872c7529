package api

import (
	"errors"
	"log/slog"
	"net/http"

	"taskmanager/internal/models"
	"taskmanager/internal/services"
)

type sessionRecorder interface {
	RecordSessionIssued()
	RecordAuthFailure(reason string)
}

type UserHandler struct {
	credentials *services.CredentialStore
	sessions    *services.SessionManager
	accounts    *services.AccountService
	metrics     sessionRecorder
	baseURL     string
}

func NewUserHandler(
	credentials *services.CredentialStore,
	sessions *services.SessionManager,
	accounts *services.AccountService,
	metrics sessionRecorder,
	baseURL string,
) *UserHandler {
	return &UserHandler{
		credentials: credentials,
		sessions:    sessions,
		accounts:    accounts,
		metrics:     metrics,
		baseURL:     baseURL,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
	Age      int    `json:"age" validate:"gte=0"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.credentials.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := h.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		slog.Error("error issuing session after registration", "error", err, "user_id", user.ID)
		internalError(w)
		return
	}
	h.recordSession()

	writeJSON(w, http.StatusCreated, SessionResponse{User: presentUser(h.baseURL, user), Token: token})
}

// POST /api/v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.credentials.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.metrics != nil && errors.Is(err, services.ErrUnableToLogin) {
			h.metrics.RecordAuthFailure("bad_credentials")
		}
		writeServiceError(w, r, err)
		return
	}

	token, err := h.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.recordSession()

	writeJSON(w, http.StatusOK, SessionResponse{User: presentUser(h.baseURL, user), Token: token})
}

// POST /api/v1/users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	if err := h.sessions.Revoke(r.Context(), user.ID, CurrentToken(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, presentUser(h.baseURL, user))
}

// POST /api/v1/users/logoutAll
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	if err := h.sessions.RevokeAll(r.Context(), user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	writeJSON(w, http.StatusOK, presentUser(h.baseURL, user))
}

type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=128"`
	Email    *string `json:"email" validate:"omitempty,max=254"`
	Password *string `json:"password"`
	Age      *int    `json:"age" validate:"omitempty,gte=0"`
}

// PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	var req UpdateUserRequest
	if err := decodePatch(r.Body, &req, services.ProfileFields...); err != nil {
		writeServiceError(w, r, err)
		return
	}

	updated, err := h.accounts.Update(r.Context(), user.ID, services.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, presentUser(h.baseURL, updated))
}

// DELETE /api/v1/users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	deleted, err := h.accounts.Delete(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, presentUser(h.baseURL, deleted))
}

func (h *UserHandler) recordSession() {
	if h.metrics != nil {
		h.metrics.RecordSessionIssued()
	}
}

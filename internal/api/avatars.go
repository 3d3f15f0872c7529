package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"taskmanager/internal/imaging"
	"taskmanager/internal/services"
)

const avatarFormField = "avatar"

type AvatarHandler struct {
	accounts       *services.AccountService
	maxUploadBytes int64
	baseURL        string
}

func NewAvatarHandler(accounts *services.AccountService, maxUploadBytes int64, baseURL string) *AvatarHandler {
	return &AvatarHandler{accounts: accounts, maxUploadBytes: maxUploadBytes, baseURL: baseURL}
}

// POST /api/v1/users/me/avatar
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	file, cleanup, ok := readAvatarUpload(w, r, h.maxUploadBytes)
	if !ok {
		return
	}
	defer cleanup()
	defer file.Close()

	updated, err := h.accounts.SetAvatar(r.Context(), user.ID, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, presentUser(h.baseURL, updated))
}

// DELETE /api/v1/users/me/avatar
func (h *AvatarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		unauthorized(w, "Please authenticate")
		return
	}

	updated, err := h.accounts.ClearAvatar(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, presentUser(h.baseURL, updated))
}

// GET /api/v1/users/{id}/avatar
func (h *AvatarHandler) Get(w http.ResponseWriter, r *http.Request) {
	avatar, err := h.accounts.Avatar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(avatar)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(avatar)
}

// readAvatarUpload enforces the byte limit and filename filter before any
// image decoding happens.
func readAvatarUpload(
	w http.ResponseWriter,
	r *http.Request,
	maxBytes int64,
) (multipart.File, func(), bool) {
	if maxBytes > 0 {
		// multipart framing adds a little on top of the file itself
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)
	}

	err := r.ParseMultipartForm(1 << 20)
	if err != nil {
		if isBodyTooLargeError(err) {
			payloadTooLarge(w, "File exceeds maximum upload size")
		} else {
			badRequest(w, "Invalid multipart upload")
		}
		return nil, func() {}, false
	}

	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	file, fileHeader, err := r.FormFile(avatarFormField)
	if err != nil {
		badRequest(w, "File field 'avatar' is required")
		cleanup()
		return nil, func() {}, false
	}

	if maxBytes > 0 && fileHeader.Size > maxBytes {
		file.Close()
		cleanup()
		payloadTooLarge(w, "File exceeds maximum upload size")
		return nil, func() {}, false
	}

	if err := imaging.CheckFilename(fileHeader.Filename); err != nil {
		file.Close()
		cleanup()
		badRequest(w, "Only image files are accepted (jpg/jpeg/png)")
		return nil, func() {}, false
	}

	return file, cleanup, true
}

func isBodyTooLargeError(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}

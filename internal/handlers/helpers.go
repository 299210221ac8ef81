package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"soukBack/internal/models"
	"soukBack/internal/services"
	"soukBack/internal/validation"
)

type errorResponse struct {
	Error  string               `json:"error"`
	Fields map[string]string    `json:"fields,omitempty"`
	Files  []services.FileError `json:"files,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondError maps service errors to HTTP responses. Unknown errors are
// logged and reported as 500.
func respondError(w http.ResponseWriter, log services.Logger, err error) {
	var (
		verrs validation.Errors
		uerrs services.UploadErrors
	)
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: verrs})
	case errors.As(err, &uerrs):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "image upload failed", Files: uerrs})
	case errors.Is(err, models.ErrNoRecord):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, models.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, models.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email is already registered")
	case errors.Is(err, models.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, models.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "listings are temporarily unavailable")
	case errors.Is(err, context.Canceled):
		// Client went away.
	default:
		if log != nil {
			log.Errorf("%v", err)
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// getParam returns a route parameter stored by pat as ":name", falling back
// to the plain query parameter.
func getParam(r *http.Request, name string) string {
	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}
	return r.URL.Query().Get(name)
}

func intParam(r *http.Request, name string) int {
	n, err := strconv.Atoi(getParam(r, name))
	if err != nil {
		return 0
	}
	return n
}

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID stores the authenticated user id on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the id stored by WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// requireUser writes 401 when the request carries no authenticated user.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
	}
	return id, ok
}

func validationError(field, msg string) error {
	return validation.Errors{field: msg}
}

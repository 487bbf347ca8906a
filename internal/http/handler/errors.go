package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/session-auth-service/internal/domain"
	"github.com/sandeepkv93/session-auth-service/internal/http/response"
	"github.com/sandeepkv93/session-auth-service/internal/service"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidJSON  = errors.New("invalid json body")
	errBodyTooLarge = errors.New("request body too large")
)

// decodeJSON treats an empty body as an empty object so that required-field
// checks report missing_fields rather than invalid_json.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &tooLarge):
		return errBodyTooLarge
	default:
		return errInvalidJSON
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		response.Error(w, r, http.StatusRequestEntityTooLarge, "body_too_large", "request body exceeds 1 MiB", nil)
	case errors.Is(err, errInvalidJSON):
		response.Error(w, r, http.StatusBadRequest, "invalid_json", "request body must be a JSON object", nil)
	case errors.Is(err, service.ErrMissingFields):
		response.Error(w, r, http.StatusBadRequest, "missing_fields", "required fields are missing", nil)
	case errors.Is(err, service.ErrInvalidRole):
		response.Error(w, r, http.StatusBadRequest, "invalid_role", "role is not allowed", map[string]any{"allowed": domain.AllowedRoles})
	case errors.Is(err, service.ErrWeakPassword):
		response.Error(w, r, http.StatusBadRequest, "weak_password", "password must be at least 8 characters and contain a letter and a digit", nil)
	case errors.Is(err, service.ErrBadToken):
		response.Error(w, r, http.StatusBadRequest, "bad_token", "refresh token is malformed", nil)
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, r, http.StatusConflict, "email_taken", "email is already registered", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect", nil)
	case errors.Is(err, service.ErrInvalidRefresh):
		response.Error(w, r, http.StatusUnauthorized, "invalid_refresh", "refresh token is invalid or expired", nil)
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrUnauthorized):
		response.Error(w, r, http.StatusUnauthorized, "invalid_token", "invalid access token", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		response.WriteProblem(w, r, http.StatusInternalServerError, "internal server error")
	}
}

package handler

import (
	"net/http"

	"github.com/sandeepkv93/session-auth-service/internal/http/middleware"
	"github.com/sandeepkv93/session-auth-service/internal/http/response"
	"github.com/sandeepkv93/session-auth-service/internal/service"
)

type AdminHandler struct{}

func NewAdminHandler() *AdminHandler { return &AdminHandler{} }

// Ping is mounted behind AuthMiddleware and RequireRole(admin).
func (h *AdminHandler) Ping(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "role": claims.Role})
}

package handler

import (
	"net/http"

	"github.com/sandeepkv93/session-auth-service/internal/http/middleware"
	"github.com/sandeepkv93/session-auth-service/internal/http/response"
	"github.com/sandeepkv93/session-auth-service/internal/service"
)

type UserHandler struct {
	svc service.AuthServiceInterface
}

func NewUserHandler(svc service.AuthServiceInterface) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}
	user, err := h.svc.Me(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user.Identity())
}

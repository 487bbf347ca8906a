package handler

import (
	"net/http"

	"github.com/sandeepkv93/session-auth-service/internal/http/middleware"
	"github.com/sandeepkv93/session-auth-service/internal/http/response"
	"github.com/sandeepkv93/session-auth-service/internal/observability"
	"github.com/sandeepkv93/session-auth-service/internal/service"
)

type AuthHandler struct {
	svc service.AuthServiceInterface
}

func NewAuthHandler(svc service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	user, err := h.svc.Register(r.Context(), service.RegisterInput{Email: req.Email, Password: req.Password, Role: req.Role})
	if err != nil {
		observability.Audit(r, "auth.register", "failure", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.register", "success", "user_id", user.ID, "role", string(user.Role))
	response.JSON(w, r, http.StatusCreated, user.Identity())
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	pair, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
		IP:        middleware.ClientIP(r),
	})
	if err != nil {
		observability.Audit(r, "auth.login", "failure", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.login", "success")
	response.JSON(w, r, http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	access, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		observability.Audit(r, "auth.refresh", "failure", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.refresh", "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"accessToken": access})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		observability.Audit(r, "auth.logout", "failure", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.logout", "success")
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

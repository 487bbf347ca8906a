package handler

import (
	"context"
	"net/http"

	"github.com/sandeepkv93/session-auth-service/internal/health"
	"github.com/sandeepkv93/session-auth-service/internal/http/response"
)

type ReadinessProber interface {
	Ready(ctx context.Context) (bool, []health.CheckResult)
}

type HealthHandler struct {
	readiness ReadinessProber
}

func NewHealthHandler(readiness ReadinessProber) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// Readyz answers 200 either way; callers read the ready flag.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.readiness == nil {
		response.JSON(w, r, http.StatusOK, map[string]any{"ready": true})
		return
	}
	ready, checks := h.readiness.Ready(r.Context())
	response.JSON(w, r, http.StatusOK, map[string]any{"ready": ready, "checks": checks})
}

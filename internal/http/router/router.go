package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/session-auth-service/internal/domain"
	"github.com/sandeepkv93/session-auth-service/internal/http/handler"
	"github.com/sandeepkv93/session-auth-service/internal/http/middleware"
	"github.com/sandeepkv93/session-auth-service/internal/http/response"
	"github.com/sandeepkv93/session-auth-service/internal/security"
)

type Dependencies struct {
	AuthHandler        *handler.AuthHandler
	UserHandler        *handler.UserHandler
	AdminHandler       *handler.AdminHandler
	HealthHandler      *handler.HealthHandler
	JWTManager         *security.JWTManager
	APIRateLimitMax    int
	APIRateLimitWindow time.Duration
	LoginRateLimitMax  int
	LoginWindow        time.Duration
	GlobalRateLimiter  GlobalRateLimiterFunc
	LoginRateLimiter   LoginRateLimiterFunc
	EnableOTelHTTP     bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type LoginRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestIDHeader)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.Recoverer)
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitMax, dep.APIRateLimitWindow).Middleware())
	}

	loginLimiter := dep.LoginRateLimiter
	if loginLimiter == nil {
		loginLimiter = middleware.NewRateLimiter(dep.LoginRateLimitMax, dep.LoginWindow).Middleware()
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteProblem(w, r, http.StatusNotFound, fmt.Sprintf("Route %s:%s not found", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.WriteProblem(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
	})

	r.Get("/healthz", dep.HealthHandler.Healthz)
	r.Get("/readyz", dep.HealthHandler.Readyz)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", dep.AuthHandler.Register)
			r.With(loginLimiter).Post("/login", dep.AuthHandler.Login)
			r.Post("/refresh", dep.AuthHandler.Refresh)
			r.Post("/logout", dep.AuthHandler.Logout)
		})

		r.With(middleware.AuthMiddleware(dep.JWTManager)).Get("/me", dep.UserHandler.Me)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(dep.JWTManager))
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.Get("/ping", dep.AdminHandler.Ping)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}

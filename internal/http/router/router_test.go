package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/session-auth-service/internal/domain"
	"github.com/sandeepkv93/session-auth-service/internal/health"
	"github.com/sandeepkv93/session-auth-service/internal/http/handler"
	"github.com/sandeepkv93/session-auth-service/internal/security"
	"github.com/sandeepkv93/session-auth-service/internal/service"
)

type stubAuth struct{}

func (stubAuth) Register(_ context.Context, in service.RegisterInput) (*domain.User, error) {
	return &domain.User{ID: "u1", Email: in.Email, Role: domain.RoleCustomer}, nil
}

func (stubAuth) Login(context.Context, service.LoginInput) (*service.TokenPair, error) {
	return nil, service.ErrInvalidCredentials
}

func (stubAuth) Refresh(context.Context, string) (string, error) { return "", service.ErrInvalidRefresh }
func (stubAuth) Logout(context.Context, string) error           { return nil }

func (stubAuth) Me(_ context.Context, subject string) (*domain.User, error) {
	return &domain.User{ID: subject, Email: "a@x.io", Role: domain.RoleCustomer}, nil
}

func newRouterTestDeps() Dependencies {
	svc := stubAuth{}
	return Dependencies{
		AuthHandler:        handler.NewAuthHandler(svc),
		UserHandler:        handler.NewUserHandler(svc),
		AdminHandler:       handler.NewAdminHandler(),
		HealthHandler:      handler.NewHealthHandler(nil),
		JWTManager:         security.NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456", 15*time.Minute),
		APIRateLimitMax:    1000,
		APIRateLimitWindow: time.Minute,
		LoginRateLimitMax:  1000,
		LoginWindow:        time.Minute,
	}
}

func perform(r http.Handler, method, target string, headers map[string]string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "10.10.10.10:1234"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func bearer(t *testing.T, jwtMgr *security.JWTManager, role string) map[string]string {
	t.Helper()
	token, err := jwtMgr.SignAccessToken("u1", role)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return m
}

func TestRouterHealthEndpoints(t *testing.T) {
	r := NewRouter(newRouterTestDeps())

	rr := perform(r, http.MethodGet, "/healthz", nil, "")
	if rr.Code != http.StatusOK || decode(t, rr)["ok"] != true {
		t.Fatalf("unexpected healthz %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header")
	}

	dep := newRouterTestDeps()
	failing := health.CheckerFunc{CheckName: "database", Fn: func(context.Context) error { return context.DeadlineExceeded }}
	dep.HealthHandler = handler.NewHealthHandler(health.NewProbeRunner(time.Second, failing))
	rr = perform(NewRouter(dep), http.MethodGet, "/readyz", nil, "")
	if rr.Code != http.StatusOK || decode(t, rr)["ready"] != false {
		t.Fatalf("unexpected readyz %d %s", rr.Code, rr.Body.String())
	}
}

func TestRouterProblemJSONFallbacks(t *testing.T) {
	r := NewRouter(newRouterTestDeps())

	cases := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/v1/auth/nope", http.StatusNotFound},
		{http.MethodGet, "/v1/auth/register", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/healthz", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		rr := perform(r, tc.method, tc.path, nil, "")
		if rr.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Fatalf("%s %s: unexpected content type %q", tc.method, tc.path, ct)
		}
		body := decode(t, rr)
		if body["type"] != "about:blank" || body["status"] != float64(tc.status) || body["instance"] != tc.path {
			t.Fatalf("%s %s: unexpected problem %v", tc.method, tc.path, body)
		}
	}
}

func TestRouterAccessGuard(t *testing.T) {
	dep := newRouterTestDeps()
	r := NewRouter(dep)

	if rr := perform(r, http.MethodGet, "/v1/me", nil, ""); rr.Code != http.StatusUnauthorized || decode(t, rr)["error"] != "invalid_token" {
		t.Fatalf("expected 401 invalid_token, got %d %s", rr.Code, rr.Body.String())
	}
	if rr := perform(r, http.MethodGet, "/v1/me", bearer(t, dep.JWTManager, "customer"), ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}

	if rr := perform(r, http.MethodGet, "/v1/admin/ping", nil, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	rr := perform(r, http.MethodGet, "/v1/admin/ping", bearer(t, dep.JWTManager, "customer"), "")
	if rr.Code != http.StatusForbidden || decode(t, rr)["error"] != "forbidden" {
		t.Fatalf("expected 403 forbidden, got %d %s", rr.Code, rr.Body.String())
	}
	rr = perform(r, http.MethodGet, "/v1/admin/ping", bearer(t, dep.JWTManager, "admin"), "")
	body := decode(t, rr)
	if rr.Code != http.StatusOK || body["ok"] != true || body["role"] != "admin" {
		t.Fatalf("expected admin ping ok, got %d %v", rr.Code, body)
	}
}

func TestRouterLoginLimiterOnlyOnLogin(t *testing.T) {
	dep := newRouterTestDeps()
	dep.LoginRateLimitMax = 5
	r := NewRouter(dep)

	creds := `{"email":"a@x.io","password":"wrong-pass1"}`
	for i := 1; i <= 5; i++ {
		if rr := perform(r, http.MethodPost, "/v1/auth/login", nil, creds); rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rr.Code)
		}
	}
	rr := perform(r, http.MethodPost, "/v1/auth/login", nil, creds)
	if rr.Code != http.StatusTooManyRequests || decode(t, rr)["error"] != "rate_limited" {
		t.Fatalf("expected 429 on 6th attempt, got %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	if rr := perform(r, http.MethodPost, "/v1/auth/register", nil, `{"email":"b@x.io","password":"secret12"}`); rr.Code != http.StatusCreated {
		t.Fatalf("register must not share the login budget, got %d", rr.Code)
	}
}

func TestRouterGlobalLimiter(t *testing.T) {
	dep := newRouterTestDeps()
	dep.APIRateLimitMax = 2
	r := NewRouter(dep)

	for i := 0; i < 2; i++ {
		if rr := perform(r, http.MethodGet, "/healthz", nil, ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}
	if rr := perform(r, http.MethodGet, "/healthz", nil, ""); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	other := perform(r, http.MethodGet, "/healthz", map[string]string{"X-Forwarded-For": "198.51.100.4"}, "")
	if other.Code != http.StatusOK {
		t.Fatalf("different client should have its own budget, got %d", other.Code)
	}
}

func TestRouterCustomLimitersAndOTel(t *testing.T) {
	dep := newRouterTestDeps()
	calls := 0
	dep.GlobalRateLimiter = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			next.ServeHTTP(w, r)
		})
	}
	dep.EnableOTelHTTP = true
	r := NewRouter(dep)

	if rr := perform(r, http.MethodGet, "/healthz", nil, ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if calls != 1 {
		t.Fatalf("expected custom global limiter to run once, got %d", calls)
	}
}

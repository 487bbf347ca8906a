package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandeepkv93/session-auth-service/internal/app"
	"github.com/sandeepkv93/session-auth-service/internal/config"
)

var dbSeq atomic.Int64

type serverOptions struct {
	redisURL       string
	policyDisabled bool
	loginMax       int
	databaseURL    string
}

func testConfig(t *testing.T, opts serverOptions) *config.Config {
	t.Helper()
	dbURL := opts.databaseURL
	if dbURL == "" {
		dbURL = fmt.Sprintf("file:itest_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), dbSeq.Add(1))
	}
	loginMax := opts.loginMax
	if loginMax == 0 {
		loginMax = 5
	}
	return &config.Config{
		AppEnv:                "test",
		HTTPAddr:              "127.0.0.1:0",
		JWTSecret:             "integration-secret-integration-secret",
		JWTIssuer:             "session-auth",
		JWTAudience:           "session-auth-api",
		AccessTokenTTLMinutes: 15,
		RefreshTTLDays:        30,
		BcryptCost:            4,
		PasswordPolicyEnabled: !opts.policyDisabled,
		DatabaseURL:           dbURL,
		DBAutoMigrate:         true,
		RedisURL:              opts.redisURL,
		RateLimitMax:          300,
		RateLimitWindow:       5 * time.Minute,
		LoginRateLimitMax:     loginMax,
		LoginRateLimitWindow:  time.Minute,
		RateLimitFailureMode:  config.RateLimitFailOpen,
		ReadinessProbeTimeout: time.Second,
		ShutdownTimeout:       time.Second,
	}
}

func newAuthTestServer(t *testing.T, opts serverOptions) (string, *http.Client) {
	t.Helper()
	a, cleanup, err := app.InitializeApp(context.Background(), testConfig(t, opts), slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if err != nil {
		t.Fatalf("initialize app: %v", err)
	}
	srv := httptest.NewServer(a.Server.Handler)
	t.Cleanup(func() {
		srv.Close()
		cleanup()
	})
	return srv.URL, srv.Client()
}

type apiResponse struct {
	Status int
	Header http.Header
	Body   map[string]any
	Raw    string
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) apiResponse {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := apiResponse{Status: resp.StatusCode, Header: resp.Header, Raw: string(raw)}
	_ = json.Unmarshal(raw, &out.Body)
	return out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func fromIP(ip string) map[string]string {
	return map[string]string{"X-Forwarded-For": ip}
}

func expectStatus(t *testing.T, res apiResponse, status int, code string) {
	t.Helper()
	if res.Status != status {
		t.Fatalf("expected %d, got %d %s", status, res.Status, res.Raw)
	}
	if code != "" && res.Body["error"] != code {
		t.Fatalf("expected error %q, got %s", code, res.Raw)
	}
}

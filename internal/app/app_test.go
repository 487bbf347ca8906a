package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/sandeepkv93/session-auth-service/internal/config"
)

func testConfig(t *testing.T, redisURL string) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                "test",
		HTTPAddr:              "127.0.0.1:0",
		JWTSecret:             "abcdefghijklmnopqrstuvwxyz123456",
		JWTIssuer:             "session-auth",
		JWTAudience:           "session-auth-api",
		AccessTokenTTLMinutes: 15,
		RefreshTTLDays:        30,
		BcryptCost:            4,
		PasswordPolicyEnabled: true,
		DatabaseURL:           fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		DBAutoMigrate:         true,
		RedisURL:              redisURL,
		RateLimitMax:          300,
		RateLimitWindow:       5 * time.Minute,
		LoginRateLimitMax:     5,
		LoginRateLimitWindow:  time.Minute,
		RateLimitFailureMode:  config.RateLimitFailOpen,
		ReadinessProbeTimeout: time.Second,
		ShutdownTimeout:       2 * time.Second,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDefaultsShutdownTimeout(t *testing.T) {
	cfg := &config.Config{}
	server := &http.Server{Addr: ":8080"}
	a := New(cfg, discardLogger(), server, nil, nil, nil, nil)
	if a.Server != server || a.ShutdownTimeout != 15*time.Second {
		t.Fatalf("unexpected app %+v", a)
	}
}

func serveInBackground(t *testing.T, a *App) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()
	return "http://" + ln.Addr().String(), cancel, done
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestInitializeAppServesAndShutsDown(t *testing.T) {
	server := miniredis.RunT(t)
	cfg := testConfig(t, "redis://"+server.Addr())

	a, cleanup, err := InitializeApp(context.Background(), cfg, discardLogger(), nil)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer cleanup()
	if a.Redis == nil {
		t.Fatal("expected redis client when redis is reachable")
	}

	base, cancel, done := serveInBackground(t, a)

	if status, body := getJSON(t, base+"/healthz"); status != http.StatusOK || body["ok"] != true {
		t.Fatalf("unexpected healthz %d %v", status, body)
	}
	if status, body := getJSON(t, base+"/readyz"); status != http.StatusOK || body["ready"] != true {
		t.Fatalf("unexpected readyz %d %v", status, body)
	}

	server.Close()
	if status, body := getJSON(t, base+"/readyz"); status != http.StatusOK || body["ready"] != false {
		t.Fatalf("expected not ready with redis down, got %d %v", status, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestInitializeAppReportsUnreachableRedisNotReady(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	a, cleanup, err := InitializeApp(context.Background(), testConfig(t, "redis://"+addr), discardLogger(), nil)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer cleanup()
	if a.Redis == nil {
		t.Fatal("expected configured redis client even when unreachable at boot")
	}

	base, cancel, done := serveInBackground(t, a)
	defer func() {
		cancel()
		<-done
	}()
	if status, body := getJSON(t, base+"/readyz"); status != http.StatusOK || body["ready"] != false {
		t.Fatalf("expected 200 ready:false with configured redis down, got %d %v", status, body)
	}

	if err := server.Restart(); err != nil {
		t.Fatalf("restart redis: %v", err)
	}
	if status, body := getJSON(t, base+"/readyz"); status != http.StatusOK || body["ready"] != true {
		t.Fatalf("expected readiness to recover with redis back, got %d %v", status, body)
	}
}

func TestInitializeAppWithoutRedisURLSkipsRedisProbe(t *testing.T) {
	a, cleanup, err := InitializeApp(context.Background(), testConfig(t, ""), discardLogger(), nil)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer cleanup()
	if a.Redis != nil {
		t.Fatal("expected nil redis client when REDIS_URL is unset")
	}

	base, cancel, done := serveInBackground(t, a)
	defer func() {
		cancel()
		<-done
	}()
	status, body := getJSON(t, base+"/readyz")
	if status != http.StatusOK || body["ready"] != true {
		t.Fatalf("unexpected readyz %d %v", status, body)
	}
	checks, _ := body["checks"].([]any)
	if len(checks) != 1 {
		t.Fatalf("expected only the database check, got %v", body["checks"])
	}
}

func TestInitializeAppRejectsBadRedisURL(t *testing.T) {
	if _, _, err := InitializeApp(context.Background(), testConfig(t, "not-a-url://x"), discardLogger(), nil); err == nil {
		t.Fatal("expected error for malformed redis url")
	}
}

func TestInitializeAppRejectsBadDatabaseURL(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.DatabaseURL = "mysql://nope"
	if _, _, err := InitializeApp(context.Background(), cfg, discardLogger(), nil); err == nil {
		t.Fatal("expected error for unsupported database url")
	}
}

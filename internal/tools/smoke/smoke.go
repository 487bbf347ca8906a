// Package smoke drives a running server through the full session lifecycle.
package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/sandeepkv93/session-auth-service/internal/tools/common"
)

type Config struct {
	BaseURL       string
	Password      string
	LoginAttempts int
	AttemptDelay  time.Duration
	SkipRateLimit bool
	Client        *http.Client
}

type runner struct {
	cfg   Config
	steps []common.Step
}

type reply struct {
	status int
	header http.Header
	body   map[string]any
	raw    string
}

// Run stops at the first failing step and returns the steps completed so far.
func Run(ctx context.Context, cfg Config) ([]common.Step, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Password == "" {
		cfg.Password = "secret12"
	}
	if cfg.LoginAttempts <= 0 {
		cfg.LoginAttempts = 6
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	r := &runner{cfg: cfg}
	err := r.run(ctx)
	return r.steps, err
}

func (r *runner) run(ctx context.Context) error {
	email := fmt.Sprintf("dev+%d_%06d@example.com", time.Now().UnixMilli(), rand.IntN(1_000_000))

	if err := r.step("healthz", func() (string, error) {
		res, err := r.do(ctx, http.MethodGet, "/healthz", nil, "")
		if err != nil {
			return "", err
		}
		return "", expect(res.status == http.StatusOK && res.body["ok"] == true, "expected 200 {ok:true}", res)
	}); err != nil {
		return err
	}

	if err := r.step("readyz", func() (string, error) {
		res, err := r.do(ctx, http.MethodGet, "/readyz", nil, "")
		if err != nil {
			return "", err
		}
		return "", expect(res.status == http.StatusOK && res.body["ready"] == true, "expected 200 {ready:true}", res)
	}); err != nil {
		return err
	}

	if err := r.step("404 problem+json", func() (string, error) {
		res, err := r.do(ctx, http.MethodGet, "/does-not-exist", nil, "")
		if err != nil {
			return "", err
		}
		ct := res.header.Get("Content-Type")
		return ct, expect(res.status == http.StatusNotFound && strings.Contains(ct, "application/problem+json") &&
			res.body["status"] == float64(404) && res.body["title"] != nil, "expected problem+json 404", res)
	}); err != nil {
		return err
	}

	if err := r.step("register", func() (string, error) {
		res, err := r.do(ctx, http.MethodPost, "/v1/auth/register", map[string]string{"email": email, "password": r.cfg.Password}, "")
		if err != nil {
			return "", err
		}
		return email, expect(res.status == http.StatusCreated && res.body["id"] != nil && res.body["email"] == email, "expected 201 identity", res)
	}); err != nil {
		return err
	}

	var accessToken, refreshToken string
	if err := r.step("login", func() (string, error) {
		res, err := r.do(ctx, http.MethodPost, "/v1/auth/login", map[string]string{"email": email, "password": r.cfg.Password}, "")
		if err != nil {
			return "", err
		}
		accessToken, _ = res.body["accessToken"].(string)
		refreshToken, _ = res.body["refreshToken"].(string)
		return "", expect(res.status == http.StatusOK && accessToken != "" && refreshToken != "", "expected token pair", res)
	}); err != nil {
		return err
	}

	if err := r.step("me", func() (string, error) {
		res, err := r.do(ctx, http.MethodGet, "/v1/me", nil, accessToken)
		if err != nil {
			return "", err
		}
		return "", expect(res.status == http.StatusOK && res.body["email"] == email, "expected own identity", res)
	}); err != nil {
		return err
	}

	if err := r.step("refresh", func() (string, error) {
		res, err := r.do(ctx, http.MethodPost, "/v1/auth/refresh", map[string]string{"refreshToken": refreshToken}, "")
		if err != nil {
			return "", err
		}
		return "", expect(res.status == http.StatusOK && res.body["accessToken"] != nil, "expected new access token", res)
	}); err != nil {
		return err
	}

	if err := r.step("logout", func() (string, error) {
		res, err := r.do(ctx, http.MethodPost, "/v1/auth/logout", map[string]string{"refreshToken": refreshToken}, "")
		if err != nil {
			return "", err
		}
		return "", expect(res.status == http.StatusOK && res.body["ok"] == true, "expected {ok:true}", res)
	}); err != nil {
		return err
	}

	if err := r.step("refresh after logout", func() (string, error) {
		res, err := r.do(ctx, http.MethodPost, "/v1/auth/refresh", map[string]string{"refreshToken": refreshToken}, "")
		if err != nil {
			return "", err
		}
		return "", expect(res.status == http.StatusUnauthorized && res.body["error"] == "invalid_refresh", "expected 401 invalid_refresh", res)
	}); err != nil {
		return err
	}

	if r.cfg.SkipRateLimit {
		return nil
	}
	return r.step("login rate limit", func() (string, error) {
		for i := 0; i < r.cfg.LoginAttempts; i++ {
			res, err := r.do(ctx, http.MethodPost, "/v1/auth/login", map[string]string{"email": email, "password": "WRONG"}, "")
			if err != nil {
				return "", err
			}
			if res.status == http.StatusTooManyRequests {
				return fmt.Sprintf("429 after %d attempts", i+1), nil
			}
			if r.cfg.AttemptDelay > 0 {
				time.Sleep(r.cfg.AttemptDelay)
			}
		}
		return "", fmt.Errorf("no 429 after %d bad logins", r.cfg.LoginAttempts)
	})
}

func (r *runner) step(name string, fn func() (string, error)) error {
	detail, err := fn()
	s := common.Step{Name: name, OK: err == nil, Detail: detail}
	if err != nil {
		s.Detail = err.Error()
	}
	r.steps = append(r.steps, s)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (r *runner) do(ctx context.Context, method, path string, body any, bearer string) (*reply, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := r.cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	res := &reply{status: resp.StatusCode, header: resp.Header, raw: string(raw)}
	_ = json.Unmarshal(raw, &res.body)
	return res, nil
}

func expect(cond bool, msg string, res *reply) error {
	if cond {
		return nil
	}
	return fmt.Errorf("%s, got %d %s", msg, res.status, strings.TrimSpace(res.raw))
}

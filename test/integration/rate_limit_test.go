package integration

import (
	"net/http"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestLoginRateLimitLocal(t *testing.T) {
	base, client := newAuthTestServer(t, serverOptions{})
	bad := map[string]string{"email": "x@x.io", "password": "wrong123"}

	for i := 1; i <= 5; i++ {
		expectStatus(t, doJSON(t, client, http.MethodPost, base+"/v1/auth/login", bad, fromIP("203.0.113.1")), http.StatusUnauthorized, "invalid_credentials")
	}
	res := doJSON(t, client, http.MethodPost, base+"/v1/auth/login", bad, fromIP("203.0.113.1"))
	expectStatus(t, res, http.StatusTooManyRequests, "rate_limited")
	if res.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	expectStatus(t, doJSON(t, client, http.MethodPost, base+"/v1/auth/login", bad, fromIP("203.0.113.2")), http.StatusUnauthorized, "invalid_credentials")
	expectStatus(t, doJSON(t, client, http.MethodGet, base+"/healthz", nil, fromIP("203.0.113.1")), http.StatusOK, "")
}

func TestLoginRateLimitSharedThroughRedis(t *testing.T) {
	server := miniredis.RunT(t)
	redisURL := "redis://" + server.Addr()
	baseA, clientA := newAuthTestServer(t, serverOptions{redisURL: redisURL})
	baseB, clientB := newAuthTestServer(t, serverOptions{redisURL: redisURL})
	bad := map[string]string{"email": "x@x.io", "password": "wrong123"}

	for i := 0; i < 3; i++ {
		expectStatus(t, doJSON(t, clientA, http.MethodPost, baseA+"/v1/auth/login", bad, fromIP("198.51.100.9")), http.StatusUnauthorized, "")
	}
	for i := 0; i < 2; i++ {
		expectStatus(t, doJSON(t, clientB, http.MethodPost, baseB+"/v1/auth/login", bad, fromIP("198.51.100.9")), http.StatusUnauthorized, "")
	}
	expectStatus(t, doJSON(t, clientB, http.MethodPost, baseB+"/v1/auth/login", bad, fromIP("198.51.100.9")), http.StatusTooManyRequests, "rate_limited")
	expectStatus(t, doJSON(t, clientA, http.MethodPost, baseA+"/v1/auth/login", bad, fromIP("198.51.100.9")), http.StatusTooManyRequests, "rate_limited")
}

func TestRateLimitFailsOpenWhenRedisDies(t *testing.T) {
	server := miniredis.RunT(t)
	base, client := newAuthTestServer(t, serverOptions{redisURL: "redis://" + server.Addr(), loginMax: 1})
	server.Close()

	bad := map[string]string{"email": "x@x.io", "password": "wrong123"}
	for i := 0; i < 3; i++ {
		expectStatus(t, doJSON(t, client, http.MethodPost, base+"/v1/auth/login", bad, nil), http.StatusUnauthorized, "invalid_credentials")
	}
}

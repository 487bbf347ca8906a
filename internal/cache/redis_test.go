package cache

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewEmptyURLDisablesRedis(t *testing.T) {
	client, err := New("  ")
	if err != nil || client != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", client, err)
	}
}

func TestNewRejectsInvalidURL(t *testing.T) {
	if _, err := New("not-a-url://x"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewConnectsLazily(t *testing.T) {
	server := miniredis.RunT(t)
	client, err := New("redis://" + server.Addr())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()
	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	server.CheckGet(t, "k", "v")
}

func TestNewClientRecoversWhenServerReturns(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	client, err := New("redis://" + addr)
	if err != nil || client == nil {
		t.Fatalf("expected client without dialing, got (%v, %v)", client, err)
	}
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err == nil {
		t.Fatal("expected ping failure while server is down")
	}
	if err := server.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("expected ping to recover, got %v", err)
	}
}

// Package health runs dependency probes for the readiness endpoint.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/session-auth-service/internal/observability"
)

type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

type CheckerFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (c CheckerFunc) Name() string                    { return c.CheckName }
func (c CheckerFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

type CheckResult struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Error   string        `json:"-"`
	Elapsed time.Duration `json:"-"`
}

type ProbeRunner struct {
	timeout  time.Duration
	checkers []Checker
}

func NewProbeRunner(timeout time.Duration, checkers ...Checker) *ProbeRunner {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	active := make([]Checker, 0, len(checkers))
	for _, c := range checkers {
		if c != nil {
			active = append(active, c)
		}
	}
	return &ProbeRunner{timeout: timeout, checkers: active}
}

// Ready runs every checker concurrently, each under its own deadline. A failing
// checker does not cancel the others.
func (p *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	results := make([]CheckResult, len(p.checkers))
	var g errgroup.Group
	for i, c := range p.checkers {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()
			start := time.Now()
			err := c.Check(probeCtx)
			elapsed := time.Since(start)
			res := CheckResult{Name: c.Name(), Healthy: err == nil, Elapsed: elapsed}
			if err != nil {
				res.Error = err.Error()
				slog.WarnContext(ctx, "readiness probe failed", "check", c.Name(), "error", err.Error(), "elapsed_ms", elapsed.Milliseconds())
			}
			results[i] = res
			observability.RecordReadinessProbe(ctx, c.Name(), err == nil, elapsed)
			return nil
		})
	}
	_ = g.Wait()

	ready := true
	for _, r := range results {
		if !r.Healthy {
			ready = false
		}
	}
	return ready, results
}

type pinger interface {
	Ping(ctx context.Context) error
}

func DatabaseChecker(db pinger) Checker {
	return CheckerFunc{CheckName: "database", Fn: db.Ping}
}

// RedisChecker returns nil for a nil client, which only happens when REDIS_URL is unset.
func RedisChecker(client *redis.Client) Checker {
	if client == nil {
		return nil
	}
	return CheckerFunc{CheckName: "redis", Fn: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

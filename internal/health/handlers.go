// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"
)

// StatusDisabled is reported for dependencies the service runs without.
const StatusDisabled = "disabled"

// ErrDisabled is returned by a Checker for a dependency that is not configured.
var ErrDisabled = errors.New("disabled")

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the process-wide readiness flag. The API clears it when shutdown
// starts so load balancers drain traffic before the listener closes.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the readiness flag.
func IsReady() bool {
	return ready.Load()
}

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Probes implements Checker with optional probe functions. A nil probe reports
// ErrDisabled: the pricing engine runs without Postgres or Redis.
type Probes struct {
	DB    func(ctx context.Context) error
	Redis func(ctx context.Context) error
}

// PingDB implements Checker.
func (p Probes) PingDB(ctx context.Context, timeout time.Duration) error {
	return probe(ctx, timeout, p.DB)
}

// PingRedis implements Checker.
func (p Probes) PingRedis(ctx context.Context, timeout time.Duration) error {
	return probe(ctx, timeout, p.Redis)
}

func probe(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if fn == nil {
		return ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the shutdown flag and dependency probes.
// Disabled dependencies do not fail readiness.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !IsReady() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	dbStatus := status(h.Checker.PingDB(ctx, h.dbTimeout()))
	redisStatus := status(h.Checker.PingRedis(ctx, h.redisTimeout()))
	body := map[string]string{
		"db":    dbStatus,
		"redis": redisStatus,
	}
	w.Header().Set("Content-Type", "application/json")
	if healthy(dbStatus) && healthy(redisStatus) {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDisabled):
		return StatusDisabled
	default:
		return err.Error()
	}
}

func healthy(s string) bool {
	return s == "ok" || s == StatusDisabled
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}

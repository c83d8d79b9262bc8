package health

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-printshop/internal/common"
)

// ErrNotConfigured is returned by a probe whose dependency is optional and
// absent. It does not fail readiness.
var ErrNotConfigured = errors.New("not configured")

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness. Shutdown flips it off so load balancers drain
// the instance before the listener closes.
func SetReady(v bool) { ready.Store(v) }

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies probes the optional database and Redis client.
type Dependencies struct {
	DB    Pinger
	Redis redis.UniversalClient
}

// PingDB implements Checker.
func (d Dependencies) PingDB(ctx context.Context, timeout time.Duration) error {
	if d.DB == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.DB.Ping(ctx)
}

// PingRedis implements Checker.
func (d Dependencies) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
	// RatesVersion reports the active rate tables version.
	RatesVersion func() string
}

// Status is the readiness payload.
type Status struct {
	Ready        bool   `json:"ready"`
	DB           string `json:"db"`
	Redis        string `json:"redis"`
	RatesVersion string `json:"ratesVersion,omitempty"`
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSONError(w, http.StatusServiceUnavailable, "SHUTTING_DOWN", "server is shutting down", nil)
		return
	}
	checker := h.Checker
	if checker == nil {
		checker = Dependencies{}
	}
	ctx := r.Context()
	status := Status{
		DB:    probeStatus(checker.PingDB(ctx, h.dbTimeout())),
		Redis: probeStatus(checker.PingRedis(ctx, h.redisTimeout())),
	}
	if h.RatesVersion != nil {
		status.RatesVersion = h.RatesVersion()
	}
	status.Ready = healthy(status.DB) && healthy(status.Redis) && (h.RatesVersion == nil || status.RatesVersion != "")

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func probeStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConfigured):
		return "disabled"
	default:
		return err.Error()
	}
}

func healthy(status string) bool {
	return status == "ok" || status == "disabled"
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

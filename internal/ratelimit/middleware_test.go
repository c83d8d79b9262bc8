package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMemoryStoreEnforcesLimitPerClient(t *testing.T) {
	store, err := NewStore(nil, "")
	require.NoError(t, err)
	lim, err := New(store, "2-M")
	require.NoError(t, err)
	h := Handler{Limiter: lim}.Middleware(okHandler())

	first := serve(h, "10.0.0.1:5000")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:5001").Code)

	blocked := serve(h, "10.0.0.1:5002")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	require.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	retry, err := strconv.Atoi(blocked.Header().Get("Retry-After"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, retry, 0)
	require.LessOrEqual(t, retry, 60)
	require.Contains(t, blocked.Body.String(), "RATE_LIMITED")

	require.Equal(t, http.StatusOK, serve(h, "10.0.0.2:5000").Code, "other clients keep their own budget")
}

func TestForwardedForDoesNotResetBudget(t *testing.T) {
	store, err := NewStore(nil, "")
	require.NoError(t, err)
	lim, err := New(store, "1-M")
	require.NoError(t, err)
	h := Handler{Limiter: lim}.Middleware(okHandler())

	for i, forwarded := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
		req.RemoteAddr = "10.0.0.9:5000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i == 0 {
			require.Equal(t, http.StatusOK, rec.Code)
		} else {
			require.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}

func TestRedisStoreSharesBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewStore(client, "test:quotes")
	require.NoError(t, err)
	lim, err := New(store, "1-H")
	require.NoError(t, err)

	replicaA := Handler{Limiter: lim, Key: func(*http.Request) string { return "shared" }}.Middleware(okHandler())
	replicaB := Handler{Limiter: lim, Key: func(*http.Request) string { return "shared" }}.Middleware(okHandler())

	require.Equal(t, http.StatusOK, serve(replicaA, "10.0.0.1:1").Code)
	require.Equal(t, http.StatusTooManyRequests, serve(replicaB, "10.0.0.2:1").Code)
}

func TestStoreErrorsFailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewStore(client, "")
	require.NoError(t, err)
	lim, err := New(store, "1-H")
	require.NoError(t, err)

	var observed error
	h := Handler{
		Limiter: lim,
		OnError: func(err error) { observed = err },
	}.Middleware(okHandler())

	mr.Close()
	rec := serve(h, "10.0.0.1:1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Error(t, observed)
	require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestInvalidRateIsRejected(t *testing.T) {
	store, err := NewStore(nil, "")
	require.NoError(t, err)
	_, err = New(store, "fast")
	require.Error(t, err)
}

func TestNilLimiterPassesThrough(t *testing.T) {
	rec := serve(Handler{}.Middleware(okHandler()), "10.0.0.1:1")
	require.Equal(t, http.StatusOK, rec.Code)
}

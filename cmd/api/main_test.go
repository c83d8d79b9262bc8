package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProtectPprof(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	status := func(h http.Handler, user, pass string) int {
		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
		if user != "" || pass != "" {
			req.SetBasicAuth(user, pass)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	guarded := protectPprof(inner, "ops", "s3cret")
	require.Equal(t, http.StatusOK, status(guarded, "ops", "s3cret"))
	require.Equal(t, http.StatusUnauthorized, status(guarded, "ops", "wrong"))
	require.Equal(t, http.StatusUnauthorized, status(guarded, "", ""))

	unconfigured := protectPprof(inner, "", "")
	require.Equal(t, http.StatusUnauthorized, status(unconfigured, "", ""))
	require.Equal(t, http.StatusUnauthorized, status(unconfigured, "anyone", "anything"))
}

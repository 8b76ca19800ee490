package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itas-team/itas/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := httpx.RateLimitByIP(cfg)(okHandler())

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("10.0.0.1"))
	require.Equal(t, http.StatusOK, do("10.0.0.1"))

	// Third request from the same IP exceeds the burst.
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))

	// A different IP has its own bucket.
	require.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestRateLimitHeaders(t *testing.T) {
	t.Parallel()

	cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	h := httpx.RateLimitByIP(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:999"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
}

func TestIPKeyExtractor(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.0.7:4444"
	require.Equal(t, "192.168.0.7", httpx.IPKeyExtractor(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	require.Equal(t, "203.0.113.9", httpx.IPKeyExtractor(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	require.Equal(t, "198.51.100.4", httpx.IPKeyExtractor(req))
}

package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Second,
		BurstSize:         2,
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func countAllowed(t *testing.T, l Limiter, key string, n int) int {
	t.Helper()
	allowed := 0
	for i := 0; i < n; i++ {
		ok, err := l.Allow(context.Background(), key)
		require.NoError(t, err)
		if ok {
			allowed++
		}
	}
	return allowed
}

func TestRateLimiter_Allow(t *testing.T) {
	cfg := testConfig()
	limiter := NewRateLimiter(cfg)

	assert.Equal(t, 12, countAllowed(t, limiter, "a", 17))
	assert.Equal(t, 12, countAllowed(t, limiter, "b", 12), "keys are independent")

	time.Sleep(time.Second)
	assert.Positive(t, countAllowed(t, limiter, "a", 1), "tokens refill")
}

func TestRateLimiter_Remaining(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(testConfig())

	remaining, err := limiter.Remaining(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 12, remaining)

	countAllowed(t, limiter, "a", 5)
	remaining, err = limiter.Remaining(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 7, remaining)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: 10 * time.Millisecond})
	countAllowed(t, limiter, "a", 1)

	time.Sleep(30 * time.Millisecond)
	limiter.Cleanup()

	limiter.mu.RLock()
	defer limiter.mu.RUnlock()
	assert.Empty(t, limiter.buckets)
}

func TestRateLimiter_StartCleanup(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: 10 * time.Millisecond})
	countAllowed(t, limiter, "a", 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter.StartCleanup(ctx)

	assert.Eventually(t, func() bool {
		limiter.mu.RLock()
		defer limiter.mu.RUnlock()
		return len(limiter.buckets) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 50, WindowDuration: time.Hour})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := limiter.Allow(context.Background(), "a")
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestDistributedRateLimiter(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	limiter := NewDistributedRateLimiter(client, testConfig(), "test")

	assert.Equal(t, 12, countAllowed(t, limiter, "a", 15))
	assert.Equal(t, time.Second, mr.TTL("test:a"))

	remaining, err := limiter.Remaining(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	remaining, err = limiter.Remaining(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 12, remaining)

	mr.FastForward(2 * time.Second)
	assert.Equal(t, 1, countAllowed(t, limiter, "a", 1), "new window")

	require.NoError(t, limiter.Reset(ctx, "a"))
	assert.False(t, mr.Exists("test:a"))
}

func TestDistributedRateLimiter_Defaults(t *testing.T) {
	client, _ := setupRedis(t)
	limiter := NewDistributedRateLimiter(client, nil, "")

	assert.Equal(t, DefaultRateLimitConfig(), limiter.Config())
	assert.Equal(t, "ratelimit:x", limiter.key("x"))
}

func TestDistributedRateLimiter_RedisDown(t *testing.T) {
	client, mr := setupRedis(t)
	limiter := NewDistributedRateLimiter(client, testConfig(), "test")
	mr.SetError("ERR test failure")

	ok, err := limiter.Allow(context.Background(), "a")
	assert.Error(t, err)
	assert.True(t, ok, "fails open")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Hour})
	handler := RateLimit(limiter, quietLogger())(okHandler())

	do := func(remoteAddr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/v1/oov", nil)
		r.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	w := do("10.0.0.1:1234")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do("10.0.0.1:5678").Code, "port is not part of the key")

	w = do("10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusOK, do("10.0.0.2:1234").Code)
}

func TestRateLimitMiddleware_FailOpen(t *testing.T) {
	client, mr := setupRedis(t)
	limiter := NewDistributedRateLimiter(client, testConfig(), "test")
	mr.SetError("ERR test failure")

	w := httptest.NewRecorder()
	RateLimit(limiter, quietLogger())(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:4000", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.1:80", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

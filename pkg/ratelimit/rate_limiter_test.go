package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg *Config) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateLimiter(client, cfg), mr
}

func testConfig() *Config {
	return &Config{
		Enabled:         true,
		WindowDuration:  time.Minute,
		DefaultRequests: 5,
		ClaimRequests:   2,
		PublicRequests:  10,
		HealthRequests:  3,
		WhitelistedIPs:  []string{"10.0.0.1"},
	}
}

func TestIsAllowedEnforcesLimit(t *testing.T) {
	rl, _ := newTestLimiter(t, testConfig())
	ctx := context.Background()

	first, err := rl.IsAllowed(ctx, "192.0.2.1", RateLimitTypeClaim)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 2, first.Limit)
	assert.Equal(t, 1, first.Remaining)

	second, err := rl.IsAllowed(ctx, "192.0.2.1", RateLimitTypeClaim)
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := rl.IsAllowed(ctx, "192.0.2.1", RateLimitTypeClaim)
	require.NoError(t, err)
	assert.False(t, third.Allowed)

	other, err := rl.IsAllowed(ctx, "192.0.2.2", RateLimitTypeClaim)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "buckets are per client")

	public, err := rl.IsAllowed(ctx, "192.0.2.1", RateLimitTypePublic)
	require.NoError(t, err)
	assert.True(t, public.Allowed, "buckets are per limit type")
}

func TestIsAllowedBypasses(t *testing.T) {
	cfg := testConfig()
	rl, mr := newTestLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypeClaim)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	cfg.Enabled = false
	mr.Close()
	res, err := rl.IsAllowed(ctx, "192.0.2.1", RateLimitTypeClaim)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestIsAllowedFailsWithoutRedis(t *testing.T) {
	rl, mr := newTestLimiter(t, testConfig())
	mr.Close()

	_, err := rl.IsAllowed(context.Background(), "192.0.2.1", RateLimitTypeDefault)
	assert.Error(t, err)
}

func TestGetRateLimitType(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   RateLimitType
	}{
		{"GET", "/health", RateLimitTypeHealth},
		{"GET", "/metrics", RateLimitTypeHealth},
		{"POST", "/api/v1/analytics/events", RateLimitTypeAnalytics},
		{"POST", "/api/v1/placements", RateLimitTypeClaim},
		{"POST", "/api/v1/placements/checkout", RateLimitTypeClaim},
		{"DELETE", "/api/v1/slots/:slot_id/queue/:placement_id", RateLimitTypeClaim},
		{"POST", "/api/v1/content", RateLimitTypeUpload},
		{"POST", "/api/v1/slots", RateLimitTypePublisher},
		{"GET", "/api/v1/slots/:slot_id", RateLimitTypePublic},
		{"GET", "/api/v1/placements/active", RateLimitTypePublic},
		{"GET", "/api/v1/content/:ref", RateLimitTypePublic},
		{"GET", "/", RateLimitTypeDefault},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, getRateLimitType(tt.method, tt.path))
		})
	}
}

func TestMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(t, testConfig())

	r := gin.New()
	r.Use(Middleware(rl))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.1.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, []int{200, 200, 200, 429}, codes)
}

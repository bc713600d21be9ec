package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/price-aggregator/internal/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInternalAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/internal", InternalAuthMiddleware("secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req.Header.Set(InternalAPIKeyHeader, "secret")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	disabled := gin.New()
	disabled.GET("/internal", InternalAuthMiddleware(""), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusServiceUnavailable, serve(disabled, req).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2, IdleTTL: time.Minute})
	r := gin.New()
	r.GET("/", RateLimitMiddleware(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(r, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(r, other).Code)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimitMiddleware(NewIPRateLimiter(RateLimiterConfig{})), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestIPRateLimiter_CleanupOldLimiters(t *testing.T) {
	rl := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.GetLimiter("a")
	now = now.Add(2 * time.Minute)
	rl.GetLimiter("b")

	assert.Equal(t, 1, rl.CleanupOldLimiters())
	assert.Equal(t, 1, rl.Size())
}

func TestRequestID(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		seen = telemetry.RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = serve(r, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestRequestLoggerAndCORS(t *testing.T) {
	logger := zerolog.Nop()
	r := gin.New()
	r.Use(CORS(CORSConfig{}), RequestID(), RequestLogger(&logger))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.com")
	w := serve(r, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

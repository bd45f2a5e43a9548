package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSWithConfig(t *testing.T) {
	newRouter := func(cfg CORSConfig) *gin.Engine {
		r := gin.New()
		r.Use(CORSWithConfig(cfg))
		r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		return r
	}

	t.Run("empty whitelist sets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://elsewhere.example")
		w := httptest.NewRecorder()
		newRouter(DefaultCORSConfig()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("whitelisted origin is echoed with credentials", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://portal.example"}
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "https://portal.example")
		w := httptest.NewRecorder()
		newRouter(cfg).ServeHTTP(w, req)

		assert.Equal(t, "https://portal.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("wildcard never allows credentials", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"*"}
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "https://any.example")
		w := httptest.NewRecorder()
		newRouter(cfg).ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight answers 204", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"https://portal.example"}
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "https://portal.example")
		w := httptest.NewRecorder()
		newRouter(cfg).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	})

	t.Run("truncates oversized ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", 500))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Len(t, w.Header().Get(RequestIDHeader), MaxRequestIDLength)
	})
}

func TestSecure(t *testing.T) {
	r := gin.New()
	r.Use(Secure())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestBodyLimit(t *testing.T) {
	newRouter := func(limit int64) *gin.Engine {
		r := gin.New()
		r.Use(RequestID(), BodyLimit(limit))
		r.POST("/test", func(c *gin.Context) {
			buf := new(bytes.Buffer)
			if _, err := buf.ReadFrom(c.Request.Body); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		})
		return r
	}

	t.Run("allows small bodies", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(1024).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("small body")))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects by Content-Length", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 200)))
		w := httptest.NewRecorder()
		newRouter(100).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
	})

	t.Run("cuts off streamed bodies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		newRouter(50).ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("separate windows per key", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)
		defer limiter.Stop()

		ok, remaining := limiter.Allow("a")
		assert.True(t, ok)
		assert.Equal(t, 1, remaining)
		ok, _ = limiter.Allow("a")
		assert.True(t, ok)
		ok, _ = limiter.Allow("a")
		assert.False(t, ok)

		ok, _ = limiter.Allow("b")
		assert.True(t, ok)
	})

	t.Run("window resets", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Stop()
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		limiter.now = func() time.Time { return now }

		ok, _ := limiter.Allow("a")
		require.True(t, ok)
		ok, _ = limiter.Allow("a")
		require.False(t, ok)

		now = now.Add(time.Minute)
		ok, _ = limiter.Allow("a")
		assert.True(t, ok)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		limiter.Stop()
		limiter.Stop()
	})
}

func TestRateLimit_Middleware(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()

	r := gin.New()
	r.Use(RequestID(), RateLimit(limiter))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

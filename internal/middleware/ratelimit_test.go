package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRateLimiterAllow(t *testing.T) {
	t.Run("should allow requests within the burst", func(t *testing.T) {
		rl := NewRateLimiter(1, 3)
		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("10.0.0.1"))
		}
		assert.False(t, rl.Allow("10.0.0.1"))
	})

	t.Run("should track keys independently", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
		assert.True(t, rl.Allow("b"))
		assert.Equal(t, 2, rl.Len())
	})

	t.Run("should handle concurrent requests safely", func(t *testing.T) {
		rl := NewRateLimiter(1, 50)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if rl.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.GreaterOrEqual(t, allowed, 50)
		assert.LessOrEqual(t, allowed, 51)
	})
}

func TestCleanupOldBuckets(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	rl.Allow("stale")
	rl.Allow("fresh")

	rl.mu.Lock()
	rl.limiters["stale"].lastSeen = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	rl.CleanupOldBuckets(time.Hour)
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("should pass through without a limiter", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)

		RateLimit(nil, discardLogger())(c)
		assert.False(t, c.IsAborted())
	})

	t.Run("should reject with 429 once the bucket is empty", func(t *testing.T) {
		mw := RateLimit(NewRateLimiter(1, 1), discardLogger())

		newCtx := func() (*gin.Context, *httptest.ResponseRecorder) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			c.Request.RemoteAddr = "192.168.1.1:12345"
			return c, w
		}

		c, _ := newCtx()
		mw(c)
		assert.False(t, c.IsAborted())

		c, w := newCtx()
		mw(c)
		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}

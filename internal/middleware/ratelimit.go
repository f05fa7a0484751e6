package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"snapfeed/internal/pkg/response"
)

const rateLimitKeys = 4096

type rateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   *lru.Cache[string, time.Time]
}

// RateLimit allows one request per key per window, keyed by ip|path. The
// LRU keeps limiter state bounded under many distinct clients.
func RateLimit(window time.Duration) gin.HandlerFunc {
	cache, _ := lru.New[string, time.Time](rateLimitKeys)
	limiter := &rateLimiter{
		window: window,
		last:   cache,
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 {
		c.Next()
		return
	}
	ip := c.ClientIP()
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{ip, path}, "|")

	now := time.Now()
	l.mu.Lock()
	last, exists := l.last.Get(key)
	if exists && now.Sub(last) < l.window {
		l.mu.Unlock()
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", ip),
			zap.String("path", path),
		)
		response.Error(c, http.StatusTooManyRequests, "too_many", http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	l.last.Add(key, now)
	l.mu.Unlock()
	c.Next()
}

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/ratelimit"
)

type RateLimitConfig struct {
	Store      *ratelimit.Store
	Classifier *ratelimit.Classifier
	Stats      *ratelimit.StatsQueue // optional
	Log        *logrus.Logger
}

// RateLimit throttles requests per client and request class.
// Rejected requests get 429 with Retry-After and never reach the handler.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if ratelimit.Bypass(path) {
			c.Next()
			return
		}

		class := cfg.Classifier.Classify(c.Request.Method, path)
		client := ratelimit.ClientID(c.Request)
		key := ratelimit.Key(class, client)
		d := cfg.Store.Allow(key, class.Limit, class.Window)

		if cfg.Stats != nil {
			cfg.Stats.Offer(ratelimit.Event{
				Class:   class.Name,
				Key:     key,
				Method:  c.Request.Method,
				Route:   c.FullPath(),
				Allowed: d.Allowed,
				At:      time.Now(),
			})
		}

		if d.Allowed {
			c.Header("X-RateLimit-Limit", strconv.Itoa(class.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			c.Next()
			return
		}

		cfg.Log.WithFields(logrus.Fields{
			"class":  class.Name,
			"client": client,
			"path":   path,
		}).Warn("rate limit exceeded")

		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": class.Message})
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}

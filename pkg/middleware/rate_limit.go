package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lieuxdexception/site/pkg/metrics"
	"golang.org/x/time/rate"
)

// clientKey prefers the authenticated subject, which keeps users behind a
// shared NAT apart, and falls back to the client IP.
func clientKey(c *gin.Context) string {
	if sub := Subject(c); sub != "" {
		return "sub:" + sub
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// Rejecter answers a refused request after the Retry-After header is set.
// A nil Rejecter answers 429 with a JSON error.
type Rejecter func(c *gin.Context, retryAfter time.Duration)

func reject(c *gin.Context, limiter string, retryAfter time.Duration, onReject Rejecter) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	if onReject != nil {
		onReject(c, retryAfter)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
}

// nextToken reports how long until lim grants one more event.
func nextToken(lim *rate.Limiter) time.Duration {
	r := lim.Reserve()
	defer r.Cancel()
	if !r.OK() {
		return time.Second
	}
	return r.Delay()
}

// bucketStore holds one token bucket per client key.
type bucketStore struct {
	rps   float64
	burst int
	m     sync.Map // map[string]*rate.Limiter
}

func (s *bucketStore) get(key string) *rate.Limiter {
	if v, ok := s.m.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := s.m.LoadOrStore(key, rate.NewLimiter(rate.Limit(s.rps), s.burst))
	return v.(*rate.Limiter)
}

// RateLimitMiddleware enforces an in-memory token bucket per client.
// name labels the metrics ("global", "contact").
func RateLimitMiddleware(name string, rps float64, burst int) gin.HandlerFunc {
	return tokenBucket(name, rps, burst, nil)
}

func tokenBucket(name string, rps float64, burst int, onReject Rejecter) gin.HandlerFunc {
	store := &bucketStore{rps: rps, burst: burst}
	label := "memory"
	if name != "" {
		label = name + "_memory"
	}
	return func(c *gin.Context) {
		lim := store.get(clientKey(c))
		if !lim.Allow() {
			reject(c, label, nextToken(lim), onReject)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(label).Inc()
		c.Next()
	}
}

package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/lieuxdexception/site/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimitMiddleware is a fixed-window limiter shared by every
// instance: INCR a per-window key and compare against rps*window+burst.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware("global", rps, burst)
	}
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowed := int64(rps*float64(windowSeconds)) + int64(burst)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		bucket := time.Now().Unix() / int64(windowSeconds)
		key := fmt.Sprintf("rl:%s:%d", clientKey(c), bucket)

		cnt, err := client.Incr(ctx, key).Result()
		if err != nil {
			// fail open: the limiter must not take the site down with Redis
			logger.For("ratelimit").Warnf("redis incr: %v", err)
			c.Next()
			return
		}
		if cnt == 1 {
			_ = client.Expire(ctx, key, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if cnt > allowed {
			reject(c, "redis", time.Duration(windowSeconds)*time.Second, nil)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}

// SlidingWindow allows at most Limit hits per key in any Window, tracking
// hit timestamps in a Redis sorted set.
type SlidingWindow struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewSlidingWindow(client *redis.Client, prefix string, limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{client: client, prefix: prefix, limit: limit, window: window, now: time.Now}
}

// Allow records a hit for key unless the window is full. When refused it
// returns how long until the oldest hit leaves the window.
func (s *SlidingWindow) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := s.now()
	k := s.prefix + key
	nowMs := now.UnixMilli()
	floor := nowMs - s.window.Milliseconds()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(floor, 10))
		p.ZAdd(ctx, k, redis.Z{Score: float64(nowMs), Member: member})
		card = p.ZCard(ctx, k)
		p.PExpire(ctx, k, s.window)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	if card.Val() <= int64(s.limit) {
		return true, 0, nil
	}

	// refused hits do not count
	s.client.ZRem(ctx, k, member)
	oldest, err := s.client.ZRangeWithScores(ctx, k, 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return false, s.window, nil
	}
	wait := time.Duration(int64(oldest[0].Score)+s.window.Milliseconds()-nowMs) * time.Millisecond
	if wait < 0 {
		wait = 0
	}
	return false, wait, nil
}

// Middleware applies the sliding window per client. onReject may be nil.
func (s *SlidingWindow) Middleware(label string, onReject Rejecter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait, err := s.Allow(c.Request.Context(), clientKey(c))
		if err != nil {
			logger.For("ratelimit").Warnf("%s sliding window: %v", label, err)
			c.Next()
			return
		}
		if !ok {
			reject(c, label, wait, onReject)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(label).Inc()
		c.Next()
	}
}

// ContactLimit guards the contact form: limit submissions per window per
// client, in Redis when available, else with an equivalent token bucket.
// onReject renders the refusal; nil answers JSON.
func ContactLimit(client *redis.Client, limit int, window time.Duration, onReject Rejecter) gin.HandlerFunc {
	if limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if client == nil {
		return tokenBucket("contact", float64(limit)/window.Seconds(), limit, onReject)
	}
	return NewSlidingWindow(client, "rl:contact:", limit, window).Middleware("contact", onReject)
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"

	"github.com/tripgate/tripgate/entity"
	"github.com/tripgate/tripgate/logger"
)

const (
	maxTrackedClients = 4096
	bucketIdleTTL     = 10 * time.Minute
)

// RateLimitConfig configures per-client request throttling.
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
	KeyFunc           func(c *gin.Context) string
}

// DefaultRateLimitConfig throttles by client IP.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 30,
		BurstSize:         10,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

type clientBucket struct {
	bucket   *ratelimit.Bucket
	lastSeen time.Time
}

// bucketStore keeps one token bucket per client key. Once the map reaches
// maxSize, buckets idle longer than idleTTL are dropped before a new key is
// admitted; an evicted client simply starts over with a full bucket.
type bucketStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket

	fillRate float64
	burst    int64
	maxSize  int
	idleTTL  time.Duration
}

func newBucketStore(config RateLimitConfig) *bucketStore {
	return &bucketStore{
		clients:  make(map[string]*clientBucket),
		fillRate: float64(config.RequestsPerMinute) / 60.0,
		burst:    int64(config.BurstSize),
		maxSize:  maxTrackedClients,
		idleTTL:  bucketIdleTTL,
	}
}

func (s *bucketStore) take(key string) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.clients[key]
	if !ok {
		if len(s.clients) >= s.maxSize {
			s.evictIdle(now)
		}
		cb = &clientBucket{bucket: ratelimit.NewBucketWithRate(s.fillRate, s.burst)}
		s.clients[key] = cb
	}
	cb.lastSeen = now

	return cb.bucket.TakeAvailable(1) > 0
}

func (s *bucketStore) evictIdle(now time.Time) {
	for key, cb := range s.clients {
		if now.Sub(cb.lastSeen) > s.idleTTL {
			delete(s.clients, key)
		}
	}
}

// RateLimit returns a middleware keeping one token bucket per client key.
// Buckets refill at RequestsPerMinute and hold at most BurstSize tokens, so
// short bursts pass and sustained hammering gets 429.
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	store := newBucketStore(config)

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		if !store.take(key) {
			logger.Warningf("rate limit exceeded for %s on %s", key, c.Request.URL.Path)
			c.Header("Retry-After", time.Minute.String())
			entity.JSONMsg(c, http.StatusTooManyRequests, false, "rate limit exceeded, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/preston-bernstein/league-sim-service/internal/http/requestutil"
	"github.com/preston-bernstein/league-sim-service/internal/metrics"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	recorder *metrics.Recorder
	now      func() time.Time
	lastGC   time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
func NewRateLimiter(perSecond float64, burst int, recorder *metrics.Recorder) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients:  make(map[string]*clientLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		recorder: recorder,
		now:      time.Now,
	}
}

// Allow reports whether the client identified by key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)
	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastGC) < limiterIdleTTL {
		return
	}
	l.lastGC = now
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.clients, key)
		}
	}
}

// Wrap rejects requests over the limit with 429 before they reach next.
func (l *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l == nil || l.Allow(requestutil.ClientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}
		l.recorder.RecordRateLimited(normalizePath(r.URL.Path))

		retry := 1
		if l.limit > 0 {
			retry = max(1, int(1/float64(l.limit)))
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		body := map[string]string{"error": "too many simulations, slow down"}
		if id := RequestIDFromContext(r.Context()); id != "" {
			body["requestId"] = id
		}
		_ = json.NewEncoder(w).Encode(body)
	})
}

package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pawfect-match/internal/platform/logger"
)

type RateLimiterConfig struct {
	PerMinute       int
	CleanupInterval time.Duration
}

type callerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter limita por usuario autenticado o, si no hay claims, por IP.
type RateLimiter struct {
	rate  rate.Limit
	burst int
	ttl   time.Duration
	log   logger.Logger

	mu       sync.Mutex
	limiters map[string]*callerLimiter

	stopCh chan struct{}
	once   sync.Once
}

func NewRateLimiter(cfg RateLimiterConfig, log logger.Logger) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 120
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}

	rl := &RateLimiter{
		rate:     rate.Limit(float64(cfg.PerMinute) / 60.0),
		burst:    cfg.PerMinute,
		ttl:      cfg.CleanupInterval * 2,
		log:      log,
		limiters: make(map[string]*callerLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop(cfg.CleanupInterval)
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// Middleware debe ir después de AuthContext.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := callerKey(r)
		if !rl.limiterFor(key).Allow() {
			rl.log.Warn("rate limit exceeded", map[string]any{"caller": key, "path": r.URL.Path})
			rl.writeLimited(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func callerKey(r *http.Request) string {
	if c, ok := GetClaims(r.Context()); ok && c.UserID != "" {
		return "user:" + c.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &callerLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > rl.ttl {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) writeLimited(w http.ResponseWriter) {
	retryAfter := int(math.Ceil(1.0 / float64(rl.rate)))
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
}

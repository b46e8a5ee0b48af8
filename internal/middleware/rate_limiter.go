package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/Dan9191/finix/internal/auth"
	"golang.org/x/time/rate"
)

// A bucket untouched for a full hour has refilled, so dropping it loses nothing.
const limiterIdle = time.Hour

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands each user a token bucket refilled evenly over an hour
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	every     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter allows perHour requests per user per hour, all of which may be spent at once
func NewRateLimiter(perHour int) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		every:     rate.Every(time.Hour / time.Duration(perHour)),
		burst:     perHour,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *RateLimiter) allow(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= limiterIdle {
		for key, b := range l.buckets {
			if now.Sub(b.lastSeen) >= limiterIdle {
				delete(l.buckets, key)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[id]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[id] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Limit rejects requests of users whose bucket is empty. It must run after Auth.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.UserID(r.Context())
		if !ok {
			id = r.RemoteAddr
		}
		if !l.allow(id) {
			WriteError(w, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

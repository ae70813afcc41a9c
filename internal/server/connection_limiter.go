package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Per-IP connection attempt rate. Generous enough for page reloads,
// tight enough to blunt a single misbehaving client.
const (
	perIPRate  = 5.0
	perIPBurst = 10
)

// LimitReason describes why a connection was rejected.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// ConnectionLimiter guards the WebSocket upgrade path. It caps total
// concurrent connections per instance with lock-free counting and
// rate-limits connection attempts per IP using a token bucket.
type ConnectionLimiter struct {
	current atomic.Int64
	max     int64

	mu        sync.Mutex
	perIP     map[string]*rateLimiterEntry
	cleanupAt time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewConnectionLimiter creates a limiter with the specified maximum
// concurrent connections.
func NewConnectionLimiter(max int) *ConnectionLimiter {
	return &ConnectionLimiter{
		max:       int64(max),
		perIP:     make(map[string]*rateLimiterEntry),
		cleanupAt: time.Now().Add(5 * time.Minute),
	}
}

// Acquire attempts to take a connection slot for the given IP.
// Returns false and the reason if the attempt is rate limited or the
// instance is at capacity.
func (l *ConnectionLimiter) Acquire(ip string) (bool, LimitReason) {
	if !l.allow(ip) {
		return false, LimitReasonRate
	}

	for {
		current := l.current.Load()
		if current >= l.max {
			return false, LimitReasonGlobal
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true, ""
		}
	}
}

// Release returns a connection slot.
func (l *ConnectionLimiter) Release() {
	l.current.Add(-1)
}

// Current returns the current number of connections.
func (l *ConnectionLimiter) Current() int64 {
	return l.current.Load()
}

// Max returns the maximum allowed connections.
func (l *ConnectionLimiter) Max() int64 {
	return l.max
}

func (l *ConnectionLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Now().After(l.cleanupAt) {
		l.cleanup()
		l.cleanupAt = time.Now().Add(5 * time.Minute)
	}

	entry, exists := l.perIP[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(perIPRate), perIPBurst),
		}
		l.perIP[ip] = entry
	}

	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup removes buckets idle for 10 minutes. Must be called with mu held.
func (l *ConnectionLimiter) cleanup() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, entry := range l.perIP {
		if entry.lastSeen.Before(cutoff) {
			delete(l.perIP, ip)
		}
	}
}

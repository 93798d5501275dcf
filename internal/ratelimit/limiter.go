// Package ratelimit implements a per-client sliding-window request counter.
//
// Eviction is lazy: a client's timestamps are pruned only on that client's
// own checks, so no background sweeper runs. Records are never deleted, which
// bounds growth by the number of distinct clients seen over process lifetime.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Info reports the outcome details of one admission check.
type Info struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter admits at most capacity requests per client within a sliding
// window. Two independent instances with different settings may guard
// different endpoints concurrently.
type Limiter struct {
	capacity int
	window   time.Duration

	records sync.Map // client id -> *clientRecord
}

// clientRecord holds one client's admitted timestamps in insertion order.
// The record mutex makes a check atomic per client; checks for distinct
// clients never contend on a shared lock.
type clientRecord struct {
	mu    sync.Mutex
	times []time.Time
}

func NewLimiter(capacity int, window time.Duration) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{capacity: capacity, window: window}
}

// Check decides whether a request from clientID at instant now is admitted,
// and returns the limit headers material either way. It never fails.
func (l *Limiter) Check(clientID string, now time.Time) (bool, Info) {
	value, _ := l.records.LoadOrStore(clientID, &clientRecord{})
	record := value.(*clientRecord)

	record.mu.Lock()
	defer record.mu.Unlock()

	// Slide the window: drop everything strictly older than now-window.
	cutoff := now.Add(-l.window)
	kept := record.times[:0]
	for _, ts := range record.times {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	record.times = kept

	count := len(record.times)
	allowed := count < l.capacity
	if allowed {
		record.times = append(record.times, now)
	}

	var resetAt time.Time
	if len(record.times) > 0 {
		resetAt = record.times[0].Add(l.window)
	} else {
		resetAt = now.Add(l.window)
	}

	admitted := 0
	if allowed {
		admitted = 1
	}
	remaining := l.capacity - count - admitted
	if remaining < 0 {
		remaining = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = resetAt.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
	}

	return allowed, Info{
		Limit:      l.capacity,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	}
}

// ClientID derives the rate-limit bucket key from request metadata: the first
// forwarded-for entry, then the real-IP header, then Cloudflare's client IP,
// then the socket peer address. Clients with no identifying information share
// the "unknown" bucket.
func ClientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
		return realIP
	}
	if cfIP := strings.TrimSpace(r.Header.Get("CF-Connecting-Ip")); cfIP != "" {
		return cfIP
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}

package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiterEntry: tracks a rate limiter and its last use time
type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimit: manages connection rate limiters per IP address
type IPRateLimit struct {
	limiters map[string]*ipLimiterEntry
	every    time.Duration
	burst    int
	mu       sync.Mutex
}

// NewIPRateLimit: allows perMinute new connections per IP with the given burst
func NewIPRateLimit(perMinute, burst int) *IPRateLimit {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &IPRateLimit{
		limiters: make(map[string]*ipLimiterEntry),
		every:    time.Minute / time.Duration(perMinute),
		burst:    burst,
	}
}

// Allow: checks if an IP is allowed to open a connection
func (iprl *IPRateLimit) Allow(ip string) bool {
	iprl.mu.Lock()
	defer iprl.mu.Unlock()

	entry, exists := iprl.limiters[ip]
	if !exists {
		entry = &ipLimiterEntry{
			limiter: rate.NewLimiter(rate.Every(iprl.every), iprl.burst),
		}
		iprl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// Cleanup: removes old IP limiters that haven't been used recently
func (iprl *IPRateLimit) Cleanup(threshold time.Duration) int {
	iprl.mu.Lock()
	defer iprl.mu.Unlock()

	now := time.Now()
	removed := 0
	for ip, entry := range iprl.limiters {
		if now.Sub(entry.lastSeen) > threshold {
			delete(iprl.limiters, ip)
			removed++
		}
	}
	return removed
}

// ClientIP: extracts the client IP from the request
// Uses RemoteAddr only - forwarded headers can be spoofed by the client
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// RateLimit allows Requests per Window for one client, refilled continuously.
type RateLimit struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per (route key, client IP). The client
// IP is the connection's remote address unless proxy headers are trusted.
type RateLimiter struct {
	logger     *log.Logger
	limits     map[string]RateLimit
	mu         sync.Mutex
	visitors   map[string]*rateEntry
	clockNow   func() time.Time
	onReject   func(w http.ResponseWriter, r *http.Request)
	trustProxy bool
}

func NewRateLimiter(limits map[string]RateLimit, logger *log.Logger) *RateLimiter {
	if logger == nil {
		logger = log.Default()
	}
	return &RateLimiter{
		logger:   logger,
		limits:   limits,
		visitors: make(map[string]*rateEntry),
		clockNow: time.Now,
		onReject: func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		},
	}
}

// OnReject replaces the default 429 response writer.
func (r *RateLimiter) OnReject(fn func(w http.ResponseWriter, r *http.Request)) {
	if fn != nil {
		r.onReject = fn
	}
}

// TrustProxyHeaders makes the limiter key clients by X-Real-IP or
// X-Forwarded-For. Enable it only behind a proxy that overwrites them.
func (r *RateLimiter) TrustProxyHeaders(trust bool) {
	r.trustProxy = trust
}

func (r *RateLimiter) Middleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			limit, ok := r.limits[key]
			if !ok || limit.Requests <= 0 {
				next.ServeHTTP(w, req)
				return
			}
			id := clientID(req, r.trustProxy)
			if !r.allow(key+"|"+id, limit) {
				r.logger.Warn("rate limited", "route", key, "client", id)
				r.onReject(w, req)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *RateLimiter) allow(id string, cfg RateLimit) bool {
	now := r.clockNow()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictIdle(now, cfg.Window)
	entry, ok := r.visitors[id]
	if !ok {
		window := cfg.Window
		if window <= 0 {
			window = time.Minute
		}
		every := rate.Every(window / time.Duration(cfg.Requests))
		entry = &rateEntry{limiter: rate.NewLimiter(every, cfg.Requests)}
		r.visitors[id] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// evictIdle drops buckets untouched for a full window; they would be full again anyway.
func (r *RateLimiter) evictIdle(now time.Time, window time.Duration) {
	if window <= 0 {
		window = time.Minute
	}
	for id, e := range r.visitors {
		if now.Sub(e.lastSeen) > window {
			delete(r.visitors, id)
		}
	}
}

func clientID(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			first = strings.TrimSpace(first)
			if parsed := net.ParseIP(first); parsed != nil {
				return parsed.String()
			}
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/logging"
)

// RateLimiter is a fixed-window limiter keyed by client IP. Stop must be
// called to end its cleanup goroutine.
type RateLimiter struct {
	name   string
	mu     sync.Mutex
	byIP   map[string]*window
	rate   int
	period time.Duration
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type window struct {
	remaining int
	start     time.Time
}

// NewRateLimiter allows rate requests per period for each IP. name labels
// rejections in logs and metrics.
func NewRateLimiter(name string, rate int, period time.Duration) *RateLimiter {
	return newRateLimiter(name, rate, period, time.Now, time.Minute)
}

func newRateLimiter(name string, rate int, period time.Duration, now func() time.Time, sweep time.Duration) *RateLimiter {
	rl := &RateLimiter{
		name:   name,
		byIP:   make(map[string]*window),
		rate:   rate,
		period: period,
		now:    now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go rl.cleanup(sweep)
	return rl
}

// Stop ends the cleanup goroutine and waits for it to exit.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
	<-rl.done
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep drops windows idle for two periods.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, w := range rl.byIP {
		if now.Sub(w.start) > 2*rl.period {
			delete(rl.byIP, ip)
		}
	}
}

// Allow consumes one request for ip and reports whether it fits the window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.byIP[ip]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.byIP[ip] = &window{remaining: rl.rate - 1, start: now}
		return rl.rate > 0
	}
	if w.remaining <= 0 {
		return false
	}
	w.remaining--
	return true
}

// retryAfter is the number of seconds until ip's window resets.
func (rl *RateLimiter) retryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.byIP[ip]
	if !ok {
		return 0
	}
	secs := int(w.start.Add(rl.period).Sub(rl.now()).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Handler rejects requests over the limit with 429 and a RATE001 body.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if rl.Allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		rateLimitedTotal.WithLabelValues(rl.name).Inc()
		logging.FromContext(r.Context()).Warn("rate limit exceeded",
			"limiter", rl.name,
			"ip", ip,
			"path", r.URL.Path,
		)

		msg := core.MapError(core.ErrRateLimited)
		w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(ip)))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   msg.Message,
			"message": msg.Message,
			"action":  msg.Action,
			"code":    msg.Code,
		})
	})
}

// ClientIP returns the request's client address without the port.
// TrustedRealIP has already rewritten RemoteAddr for proxied requests.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

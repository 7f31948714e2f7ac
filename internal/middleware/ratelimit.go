package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// SubmitLimiter is a per-client token bucket guarding run submission.
// Each accepted run costs one token; tokens refill at rate per second up
// to burst.
type SubmitLimiter struct {
	rate    float64
	burst   float64
	maxIdle time.Duration
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*tokens
	sweptAt time.Time
}

type tokens struct {
	left     float64
	lastSeen time.Time
}

// maxClients caps the tracked client set.
const maxClients = 50_000

// NewSubmitLimiter returns a limiter. A rate <= 0 disables limiting.
func NewSubmitLimiter(rate float64, burst int) *SubmitLimiter {
	if burst < 1 {
		burst = 1
	}
	return &SubmitLimiter{
		rate:    rate,
		burst:   float64(burst),
		maxIdle: 10 * time.Minute,
		now:     time.Now,
		clients: make(map[string]*tokens),
	}
}

// Handler rejects requests with 429 once the client's bucket is empty.
func (l *SubmitLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l == nil || l.rate <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		left, wait, ok := l.take(clientAddr(r))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(left))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many run submissions"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// take consumes one token for client.
func (l *SubmitLimiter) take(client string) (left int, wait time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, found := l.clients[client]
	if !found {
		if len(l.clients) >= maxClients {
			return 0, l.refillTime(1), false
		}
		b = &tokens{left: l.burst, lastSeen: now}
		l.clients[client] = b
	} else {
		b.left = math.Min(l.burst, b.left+now.Sub(b.lastSeen).Seconds()*l.rate)
		b.lastSeen = now
	}

	if b.left < 1 {
		return 0, l.refillTime(1 - b.left), false
	}
	b.left--
	return int(b.left), 0, true
}

// sweep drops idle clients at most once per maxIdle.
func (l *SubmitLimiter) sweep(now time.Time) {
	if now.Sub(l.sweptAt) < l.maxIdle {
		return
	}
	l.sweptAt = now
	for c, b := range l.clients {
		if now.Sub(b.lastSeen) > l.maxIdle {
			delete(l.clients, c)
		}
	}
}

func (l *SubmitLimiter) refillTime(need float64) time.Duration {
	return time.Duration(need / l.rate * float64(time.Second))
}

// Clients returns the number of tracked clients.
func (l *SubmitLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// clientAddr uses RemoteAddr only; forwarding headers are client-controlled.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	resp "blog-api/internal/lib/api/response"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// idleTTL is how long a client's bucket survives without requests.
const idleTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clients holds one token bucket per client address.
type clients struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	byKey     map[string]*client
	lastSweep time.Time
	now       func() time.Time
}

func newClients(rps float64, burst int) *clients {
	return &clients{
		rps:   rate.Limit(rps),
		burst: burst,
		byKey: make(map[string]*client),
		now:   time.Now,
	}
}

func (c *clients) allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) > idleTTL {
		for k, cl := range c.byKey {
			if now.Sub(cl.lastSeen) > idleTTL {
				delete(c.byKey, k)
			}
		}
		c.lastSweep = now
	}

	cl, ok := c.byKey[key]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.byKey[key] = cl
	}
	cl.lastSeen = now

	return cl.limiter.AllowN(now, 1)
}

// clientKey is the host part of RemoteAddr, which middleware.RealIP has
// already replaced with the forwarded address when present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// New returns a token-bucket limiter with a separate bucket per client.
// A non-positive rps disables limiting.
func New(log *slog.Logger, rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}

	return newMiddleware(log, newClients(rps, burst))
}

func newMiddleware(log *slog.Logger, c *clients) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !c.allow(key) {
				log.Warn("too many requests",
					slog.String("op", "middleware.ratelimit"),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("client", key),
					slog.String("path", r.URL.Path),
				)
				resp.Fail(w, r, http.StatusTooManyRequests, "Too Many Attempts.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

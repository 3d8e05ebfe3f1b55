// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/printforge/printforge-backend/internal/utils"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP and evicts idle entries so
// the map does not grow with every visitor ever seen.
type ipLimiter struct {
	clients map[string]*client
	mtx     sync.Mutex
	rate    rate.Limit
	burst   int
}

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	l := &ipLimiter{
		clients: make(map[string]*client),
		rate:    r,
		burst:   burst,
	}

	go l.evictIdle()

	return l
}

func (l *ipLimiter) evictIdle() {
	for {
		time.Sleep(time.Minute)
		l.mtx.Lock()
		for ip, c := range l.clients {
			if time.Since(c.lastSeen) > 3*time.Minute {
				delete(l.clients, ip)
			}
		}
		l.mtx.Unlock()
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	c, exists := l.clients[ip]
	if !exists {
		limiter := rate.NewLimiter(l.rate, l.burst)
		l.clients[ip] = &client{limiter, time.Now()}
		return limiter
	}

	c.lastSeen = time.Now()
	return c.limiter
}

func (l *ipLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests, slow down", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Per-concern budgets. Request browsing and status polling are cheap and
// frequent; login/register are brute-force targets; design uploads move
// print-ready files of up to 100MB, so they get the tightest budget.
var (
	generalLimiter = newIPLimiter(rate.Limit(20), 40)
	authLimiter    = newIPLimiter(rate.Every(12*time.Second), 5)
	uploadLimiter  = newIPLimiter(rate.Every(20*time.Second), 3)
)

func GeneralRateLimit() gin.HandlerFunc {
	return generalLimiter.Middleware()
}

func AuthRateLimit() gin.HandlerFunc {
	return authLimiter.Middleware()
}

func UploadRateLimit() gin.HandlerFunc {
	return uploadLimiter.Middleware()
}

// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file derives the caller identity used as the rate-limit key and adapts
// the sliding-window limiter in internal/ratelimit to Gin.
//
// Notes:
//   - The limiter is process-local and best-effort. Restarts reset it and
//     several instances do not share counts.
//   - X-Forwarded-For is attacker-controlled unless a trusted proxy rewrites
//     it. Deployments without such a proxy should disable header trust so the
//     connection address is used instead.
package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-contact-backend/internal/ratelimit"
)

const (
	// PlaceholderClientID is used when no address can be derived.
	PlaceholderClientID = "0.0.0.0"

	clientIDKey = "clientID"

	headerForwardedFor = "X-Forwarded-For"
	headerRealIP       = "X-Real-IP"

	rateLimitedMessage = "Rate limit exceeded"
)

// ResolveClientID derives the caller identifier for r.
//
// With trustProxy the first X-Forwarded-For entry wins, then X-Real-IP, then
// PlaceholderClientID. Without it the host part of the connection address is
// used. Values are trimmed; an empty first entry counts as absent.
func ResolveClientID(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get(headerForwardedFor); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get(headerRealIP)); realIP != "" {
			return realIP
		}
		return PlaceholderClientID
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return PlaceholderClientID
	}
	return addr
}

// ClientIdentity resolves the caller once per request and stores it for
// ClientIDFrom.
func ClientIdentity(trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(clientIDKey, ResolveClientID(c.Request, trustProxy))
		c.Next()
	}
}

// ClientIDFrom returns the identifier stored by ClientIdentity, or "".
func ClientIDFrom(c *gin.Context) string {
	v, _ := c.Get(clientIDKey)
	return asString(v)
}

// keyFunc selects the identity used to key the limiter.
type keyFunc func(*gin.Context) string

// KeyByClientID keys on the ClientIdentity value and falls back to
// ResolveClientID with proxy headers trusted when ClientIdentity did not run.
func KeyByClientID() keyFunc {
	return func(c *gin.Context) string {
		if id := ClientIDFrom(c); id != "" {
			return id
		}
		return ResolveClientID(c.Request, true)
	}
}

// RateLimiter rejects callers that exceed the window's quota.
//
// Rejected requests get 429 {"success": false, "message": "Rate limit
// exceeded"} and a Retry-After header; the next handler (and therefore the
// mail transport) is never reached.
type RateLimiter struct {
	win   *ratelimit.Window
	keyFn keyFunc
	now   func() time.Time

	// OnReject, when set, runs before the 429 is written.
	OnReject func(c *gin.Context)
}

// NewRateLimiter wraps win. A nil keyFn means KeyByClientID().
func NewRateLimiter(win *ratelimit.Window, keyFn keyFunc) *RateLimiter {
	if keyFn == nil {
		keyFn = KeyByClientID()
	}
	return &RateLimiter{win: win, keyFn: keyFn, now: time.Now}
}

// Handler returns the Gin middleware.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := rl.win.Allow(rl.keyFn(c), rl.now())
		rateTracked.Set(float64(rl.win.Len()))

		_, limit := rl.win.Limit()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if d.Allowed {
			c.Next()
			return
		}

		rateLimited.WithLabelValues(routeLabel(c)).Inc()
		if rl.OnReject != nil {
			rl.OnReject(c)
		}
		c.Header("Retry-After", retryAfterSeconds(d.RetryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, failureBody{Message: rateLimitedMessage})
	}
}

// retryAfterSeconds rounds up to whole seconds, never below 1.
func retryAfterSeconds(d time.Duration) string {
	s := int64(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return strconv.FormatInt(s, 10)
}

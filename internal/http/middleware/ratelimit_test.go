package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-contact-backend/internal/ratelimit"
)

func TestResolveClientID(t *testing.T) {
	cases := []struct {
		name   string
		xff    string
		realIP string
		remote string
		trust  bool
		want   string
	}{
		{name: "first forwarded entry", xff: "203.0.113.7, 10.0.0.1", realIP: "198.51.100.2", trust: true, want: "203.0.113.7"},
		{name: "forwarded entry trimmed", xff: "  203.0.113.7  ", trust: true, want: "203.0.113.7"},
		{name: "real ip fallback", realIP: " 198.51.100.2 ", trust: true, want: "198.51.100.2"},
		{name: "empty first entry falls through", xff: " , 10.0.0.1", realIP: "198.51.100.2", trust: true, want: "198.51.100.2"},
		{name: "placeholder", trust: true, want: PlaceholderClientID},
		{name: "untrusted uses connection", xff: "203.0.113.7", remote: "192.0.2.10:5555", trust: false, want: "192.0.2.10"},
		{name: "untrusted without port", remote: "192.0.2.11", trust: false, want: "192.0.2.11"},
		{name: "untrusted empty", remote: "", trust: false, want: PlaceholderClientID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ResolveClientID(req, tc.trust); got != tc.want {
				t.Fatalf("ResolveClientID = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientIdentity_SetsContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ClientIdentity(true))
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = ClientIDFrom(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "203.0.113.9" {
		t.Fatalf("ClientIDFrom = %q", seen)
	}
}

func TestKeyByClientID_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	// No identity middleware and no headers: placeholder.
	if got := KeyByClientID()(c); got != PlaceholderClientID {
		t.Fatalf("key = %q", got)
	}
	c.Set(clientIDKey, "198.51.100.1")
	if got := KeyByClientID()(c); got != "198.51.100.1" {
		t.Fatalf("key = %q", got)
	}
}

func TestRateLimiter_Handler_AllowThenReject(t *testing.T) {
	gin.SetMode(gin.TestMode)

	start := time.Unix(1_700_000_000, 0)
	now := start
	rl := NewRateLimiter(ratelimit.New(time.Minute, 2), nil)
	rl.now = func() time.Time { return now }
	var rejected int
	rl.OnReject = func(*gin.Context) { rejected++ }

	var reached int
	r := gin.New()
	r.Use(ClientIdentity(true))
	r.POST("/api/contact", rl.Handler(), func(c *gin.Context) {
		reached++
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	base := testutil.ToFloat64(rateLimited.WithLabelValues("/api/contact"))
	send := func(ip string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.Header.Set("X-Forwarded-For", ip)
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("203.0.113.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, w.Code)
		}
		now = now.Add(10 * time.Second)
	}

	w := send("203.0.113.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %d", w.Code)
	}
	// Oldest hit at start expires at start+60s; now is start+20s.
	if got := w.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("Retry-After = %q, want 40", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("X-RateLimit-Remaining = %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["success"] != false || body["message"] != "Rate limit exceeded" {
		t.Fatalf("unexpected JSON body: %v", body)
	}
	if len(body) != 2 {
		t.Fatalf("body carries extra fields: %v", body)
	}
	if got := w.Body.String(); got != `{"success":false,"message":"Rate limit exceeded"}` {
		t.Fatalf("body = %s, want success ahead of message", got)
	}
	if reached != 2 || rejected != 1 {
		t.Fatalf("reached=%d rejected=%d", reached, rejected)
	}
	if got := testutil.ToFloat64(rateLimited.WithLabelValues("/api/contact")); got != base+1 {
		t.Fatalf("rate limited counter = %v, want %v", got, base+1)
	}

	// Another identifier is unaffected.
	if w := send("203.0.113.2"); w.Code != http.StatusOK {
		t.Fatalf("other client limited: %d", w.Code)
	}

	// Once the window has fully elapsed the first client is admitted again.
	now = start.Add(61 * time.Second)
	if w := send("203.0.113.1"); w.Code != http.StatusOK {
		t.Fatalf("after window: status %d", w.Code)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "1",
		time.Nanosecond:         "1",
		time.Second:             "1",
		1500 * time.Millisecond: "2",
		40 * time.Second:        "40",
	}
	for d, want := range cases {
		if got := retryAfterSeconds(d); got != want {
			t.Fatalf("retryAfterSeconds(%v) = %q, want %q", d, got, want)
		}
	}
}

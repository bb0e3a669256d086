// Package httpapi wires the HTTP transport (Gin) to the contact service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, and the per-client rate limit.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-contact-backend/internal/config"
	"github.com/tbourn/go-contact-backend/internal/docs"
	"github.com/tbourn/go-contact-backend/internal/http/handlers"
	"github.com/tbourn/go-contact-backend/internal/http/middleware"
	"github.com/tbourn/go-contact-backend/internal/ratelimit"
	"github.com/tbourn/go-contact-backend/internal/services"
)

var (
	corsMethods = []string{"GET", "POST", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts POST <APIBasePath>/contact.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger (Logger in debug mode): structured logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (then the optional Swagger UI, which must not get the deny-all CSP)
//  8. CORS and Security headers
//
// The client identity and the sliding-window limiter run on the contact route
// only, ahead of body decoding.
func RegisterRoutes(r *gin.Engine, svc handlers.ContactService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging; redacted unless running in gin debug mode
	if cfg.GinMode == gin.DebugMode {
		r.Use(middleware.Logger())
	} else {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	}

	// 4) Panic recovery to JSON 500
	r.Use(middleware.Recovery())

	// 5) Body size limit; oversized bodies fail to decode
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	if cfg.SwaggerUI {
		docs.SwaggerInfo.BasePath = swaggerBasePath(cfg.APIBasePath)
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 8) CORS posture (allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, handlers.MsgNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, handlers.MsgMethodNotAllowed)
	})

	// Liveness/health
	r.GET("/health", handlers.Health)

	win := ratelimit.New(cfg.Rate.Window, cfg.Rate.Max,
		ratelimit.WithIdleTTL(cfg.Rate.IdleTTL),
		ratelimit.WithSweepEvery(cfg.Rate.SweepEveryN),
	)
	rl := middleware.NewRateLimiter(win, middleware.KeyByClientID())
	rl.OnReject = func(c *gin.Context) {
		services.RecordOutcome(services.OutcomeLimited)
		lg := middleware.LoggerFrom(c)
		lg.Warn().
			Str("code", handlers.ErrCodeRateLimited).
			Str("client_id", middleware.ClientIDFrom(c)).
			Msg("contact rate limited")
	}

	h := handlers.New(svc)

	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api"
	{
		api.POST("/contact",
			middleware.ClientIdentity(cfg.Rate.TrustProxy),
			rl.Handler(),
			h.SubmitContact,
		)
	}
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Requests exceeding the cap cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func swaggerBasePath(prefix string) string {
	if prefix == "" {
		return "/"
	}
	return prefix
}

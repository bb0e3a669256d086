// Package config provides application configuration loaded from environment
// variables with defaults and validation. It covers the HTTP server, logging,
// the contact rate limiter, the outbound mail relay and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// RateConfig configures the per-client sliding window on the contact route.
type RateConfig struct {
	Window      time.Duration // RATE_WINDOW
	Max         int           // RATE_MAX hits per window
	IdleTTL     time.Duration // RATE_IDLE_TTL, raised to Window when shorter
	TrustProxy  bool          // TRUST_PROXY_HEADERS
	MailRPS     float64       // MAIL_RATE_RPS, 0 disables the outbound throttle
	MailBurst   int           // MAIL_BURST
	SweepEveryN uint64        // RATE_SWEEP_EVERY checks between idle sweeps
}

// SMTPConfig holds the mail relay. An empty Host selects the log-only sender.
type SMTPConfig struct {
	Host   string
	Port   int
	Secure bool // implicit TLS (465); otherwise STARTTLS when offered
	User   string
	Pass   string
}

// MailConfig addresses the operator notification.
type MailConfig struct {
	From     string
	To       []string
	SiteName string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful drain
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // contact body cap
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // contact route is <base>/contact

	// SwaggerUI serves the API docs under /swagger/ (SWAGGER_ENABLED).
	SwaggerUI bool

	Rate RateConfig
	SMTP SMTPConfig
	Mail MailConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// Mailer reports whether a real relay is configured.
func (c Config) Mailer() bool { return strings.TrimSpace(c.SMTP.Host) != "" }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 64<<10)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		Rate: RateConfig{
			Window:      getdur("RATE_WINDOW", 60*time.Second),
			Max:         getint("RATE_MAX", 5),
			IdleTTL:     getdur("RATE_IDLE_TTL", 10*time.Minute),
			TrustProxy:  getbool("TRUST_PROXY_HEADERS", true),
			MailRPS:     getfloat("MAIL_RATE_RPS", 1),
			MailBurst:   getint("MAIL_BURST", 5),
			SweepEveryN: uint64(getint("RATE_SWEEP_EVERY", 1000)),
		},

		SMTP: SMTPConfig{
			Host:   strings.TrimSpace(getenv("SMTP_HOST", "")),
			Port:   getint("SMTP_PORT", 587),
			Secure: getbool("SMTP_SECURE", false),
			User:   getenv("SMTP_USER", ""),
			Pass:   getenv("SMTP_PASS", ""),
		},
		Mail: MailConfig{
			From:     strings.TrimSpace(getenv("MAIL_FROM", "")),
			To:       splitCSV(getenv("MAIL_TO", "")),
			SiteName: strings.TrimSpace(getenv("MAIL_SITE_NAME", "Portfolio")),
		},

		SwaggerUI: getbool("SWAGGER_ENABLED", false),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-contact-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Rate.IdleTTL > 0 && cfg.Rate.IdleTTL < cfg.Rate.Window {
		cfg.Rate.IdleTTL = cfg.Rate.Window
	}
	if cfg.Mail.SiteName == "" {
		cfg.Mail.SiteName = "Portfolio"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.Rate.Window <= 0 {
		return cfg, errors.New("RATE_WINDOW must be > 0")
	}
	if cfg.Rate.Max < 1 {
		return cfg, errors.New("RATE_MAX must be >= 1")
	}
	if cfg.Rate.IdleTTL <= 0 {
		return cfg, errors.New("RATE_IDLE_TTL must be > 0")
	}
	if cfg.Rate.MailRPS < 0 {
		return cfg, errors.New("MAIL_RATE_RPS must be >= 0")
	}
	if cfg.Rate.MailBurst < 1 {
		return cfg, errors.New("MAIL_BURST must be >= 1")
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return cfg, errors.New("SMTP_PORT must be in 1..65535")
	}
	if cfg.Mailer() {
		if cfg.Mail.From == "" {
			return cfg, errors.New("MAIL_FROM is required when SMTP_HOST is set")
		}
		if len(cfg.Mail.To) == 0 {
			return cfg, errors.New("MAIL_TO is required when SMTP_HOST is set")
		}
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// Command server runs the contact endpoint.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-contact-backend/internal/config"
	httpapi "github.com/tbourn/go-contact-backend/internal/http"
	"github.com/tbourn/go-contact-backend/internal/mailer"
	"github.com/tbourn/go-contact-backend/internal/observability"
	"github.com/tbourn/go-contact-backend/internal/services"
	"github.com/tbourn/go-contact-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// logOnlyRecipient addresses notifications when no relay is configured and
// MAIL_TO is empty. Nothing is delivered to it.
const logOnlyRecipient = "contact@localhost"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	sender, err := newSender(cfg)
	if err != nil {
		return err
	}
	svc := newContactService(cfg, sender)

	srv := newServer(cfg, svc)
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return serve(ctx, srv, ln, cfg)
}

// newSender builds the outbound chain: relay (or log-only) → throttle → span.
func newSender(cfg config.Config) (mailer.Sender, error) {
	var base mailer.Sender = mailer.LogSender{}
	if cfg.Mailer() {
		s, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:   cfg.SMTP.Host,
			Port:   cfg.SMTP.Port,
			Secure: cfg.SMTP.Secure,
			User:   cfg.SMTP.User,
			Pass:   cfg.SMTP.Pass,
		})
		if err != nil {
			return nil, err
		}
		base = s
	} else {
		log.Warn().Msg("SMTP_HOST not set, contact messages will only be logged")
	}
	return mailer.NewTraced(mailer.NewThrottle(base, cfg.Rate.MailRPS, cfg.Rate.MailBurst)), nil
}

// newContactService binds sender to the configured addresses. Without a relay
// the recipient list may be empty, so the log-only path gets a placeholder.
func newContactService(cfg config.Config, sender mailer.Sender) *services.ContactService {
	to := cfg.Mail.To
	if !cfg.Mailer() && len(to) == 0 {
		to = []string{logOnlyRecipient}
	}
	return services.NewContactService(sender, cfg.Mail.From, to, cfg.Mail.SiteName)
}

func newServer(cfg config.Config, svc *services.ContactService) *http.Server {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, svc, cfg)

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// serve blocks until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, cfg config.Config) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", ln.Addr().String()).
			Str("contact", strings.TrimSuffix(cfg.APIBasePath, "/")+"/contact").
			Bool("smtp", cfg.Mailer()).
			Str("version", version).
			Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

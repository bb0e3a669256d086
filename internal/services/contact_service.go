// Package services – ContactService
//
// This file implements ContactService, the authoritative server-side gate for
// contact submissions. It re-validates the wire input (client validation is
// never trusted), composes the operator notification with every free-text
// field HTML-escaped, and hands the result to the configured mail sender.
//
// Observability: Submit is OpenTelemetry-instrumented and records outcome
// counters and dispatch latency in Prometheus.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-contact-backend/internal/domain"
	"github.com/tbourn/go-contact-backend/internal/mailer"
)

// DefaultSiteName is used in the subject line when none is configured.
const DefaultSiteName = "Portfolio"

// Submission outcomes as recorded in contact_submissions_total.
const (
	OutcomeSent      = "sent"
	OutcomeInvalid   = "invalid"
	OutcomeSpam      = "spam"
	OutcomeFailed    = "failed"
	OutcomeLimited   = "rate_limited"
	OutcomeMalformed = "malformed"
)

var (
	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact submissions by outcome.",
		},
		[]string{"outcome"},
	)

	dispatchLat = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contact_dispatch_duration_seconds",
			Help:    "Time spent handing a notification to the mail transport.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(submissions, dispatchLat)
}

// RecordOutcome increments the submission counter. Exposed for the HTTP layer,
// which sees outcomes (rate limiting, malformed bodies) the service never does.
func RecordOutcome(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

// ContactService validates submissions and dispatches the notification mail.
type ContactService struct {
	Sender mailer.Sender

	// From and To address the operator notification.
	From string
	To   []string

	// SiteName appears in the subject line.
	SiteName string

	// now is overridable in tests.
	now func() time.Time
}

// NewContactService returns a service sending through sender.
func NewContactService(sender mailer.Sender, from string, to []string, siteName string) *ContactService {
	if strings.TrimSpace(siteName) == "" {
		siteName = DefaultSiteName
	}
	return &ContactService{
		Sender:   sender,
		From:     from,
		To:       append([]string(nil), to...),
		SiteName: siteName,
		now:      time.Now,
	}
}

// Submit re-validates in and sends one notification for clientID.
//
// Errors:
//   - *domain.ValidationError (matches ErrInvalidSubmission) when any field
//     fails; the sender is not called.
//   - ErrNotConfigured when no sender or recipient is set.
//   - ErrDispatchFailed wrapping the transport error when delivery fails.
func (s *ContactService) Submit(ctx context.Context, clientID string, in domain.ContactInput) error {
	tr := otel.Tracer("services/ContactService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("client.id", clientID)),
	)
	defer span.End()

	sub, err := domain.Validate(in)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) && verr.Has(domain.FieldWebsite, domain.NotEmpty) {
			RecordOutcome(OutcomeSpam)
		} else {
			RecordOutcome(OutcomeInvalid)
		}
		span.SetAttributes(attribute.Bool("contact.valid", false))
		return err
	}
	span.SetAttributes(attribute.Bool("contact.valid", true))

	if s.Sender == nil || len(s.To) == 0 {
		RecordOutcome(OutcomeFailed)
		span.SetStatus(codes.Error, "not configured")
		return ErrNotConfigured
	}

	msg := s.Compose(clientID, sub)

	now := s.now
	if now == nil {
		now = time.Now
	}
	start := now()
	err = s.Sender.Send(ctx, msg)
	dispatchLat.Observe(now().Sub(start).Seconds())
	if err != nil {
		RecordOutcome(OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	RecordOutcome(OutcomeSent)
	return nil
}

// Compose builds the notification for a validated submission. The plain-text
// body is the raw message; every user-supplied value placed in the HTML body
// is escaped, and header values are stripped of line breaks.
func (s *ContactService) Compose(clientID string, sub domain.ContactSubmission) *mailer.Message {
	site := s.SiteName
	if site == "" {
		site = DefaultSiteName
	}
	name := mailer.SanitizeHeader(sub.Name)
	addr := mailer.SanitizeHeader(sub.Email)

	var b strings.Builder
	b.WriteString("<h2>New Contact Message</h2>\n")
	b.WriteString("<p><b>Name:</b> " + mailer.EscapeHTML(sub.Name) + "</p>\n")
	b.WriteString("<p><b>Email:</b> " + mailer.EscapeHTML(sub.Email) + "</p>\n")
	b.WriteString("<p><b>IP:</b> " + mailer.EscapeHTML(clientID) + "</p>\n")
	b.WriteString("<hr/>\n")
	b.WriteString(`<pre style="white-space:pre-wrap;font-family:system-ui,Segoe UI,Arial">`)
	b.WriteString(mailer.EscapeHTML(sub.Message))
	b.WriteString("</pre>\n")

	return &mailer.Message{
		From:    s.From,
		To:      append([]string(nil), s.To...),
		ReplyTo: mailer.FormatAddress(name, addr),
		Subject: "New message from " + name + " via " + site,
		Text:    sub.Message,
		HTML:    b.String(),
	}
}

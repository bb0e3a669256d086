package mailer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// Throttle limits how fast the wrapped sender is called across the whole
// process. Callers block in Send until a token is available or ctx is done.
type Throttle struct {
	next Sender
	lim  *rate.Limiter
}

// NewThrottle allows rps sends per second with the given burst. A
// non-positive rps disables throttling.
func NewThrottle(next Sender, rps float64, burst int) *Throttle {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Throttle{next: next, lim: rate.NewLimiter(limit, burst)}
}

// Send waits for a token and delegates.
func (t *Throttle) Send(ctx context.Context, msg *Message) error {
	if err := t.lim.Wait(ctx); err != nil {
		return err
	}
	return t.next.Send(ctx, msg)
}

const tracerName = "github.com/tbourn/go-contact-backend/internal/mailer"

// Traced records a span around every Send.
type Traced struct {
	next Sender
}

// NewTraced wraps next.
func NewTraced(next Sender) *Traced { return &Traced{next: next} }

// Send implements Sender.
func (t *Traced) Send(ctx context.Context, msg *Message) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "mailer.Send")
	defer span.End()
	span.SetAttributes(attribute.Int("mail.recipients", len(msg.To)))

	err := t.next.Send(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
	}
	return err
}

// Package mailer is the outbound mail transport used by the contact endpoint.
//
// The package exposes a narrow Sender interface and a handful of composable
// implementations:
//
//   - SMTPSender delivers through an SMTP relay (implicit TLS or plain with
//     opportunistic STARTTLS) using github.com/jordan-wright/email.
//   - LogSender records message metadata instead of sending; used when no
//     relay is configured (local development).
//   - Throttle bounds the process-wide outbound rate.
//   - Traced wraps a Sender in an OpenTelemetry span.
//
// Any error returned by a Sender is treated by callers as a dispatch failure.
package mailer

import "context"

// Message is a single notification ready for delivery.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a Message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg *Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// Command contact-send submits one contact message through the same form
// controller a browser page would use.
//
//	contact-send -name Ada -email ada@example.com -message "Hello there, ..."
//	contact-send -preset Collaboration -name Ada -email ada@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-contact-backend/internal/client"
	"github.com/tbourn/go-contact-backend/internal/domain"
	"github.com/tbourn/go-contact-backend/internal/sysutil"
)

const defaultEndpoint = "http://localhost:8080/api/contact"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("contact-send", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		endpoint = fs.String("endpoint", "", "contact URL (default $CONTACT_ENDPOINT or "+defaultEndpoint+")")
		name     = fs.String("name", "", "sender name")
		email    = fs.String("email", "", "sender email")
		message  = fs.String("message", "", "message text")
		preset   = fs.String("preset", "", "append a topic: "+strings.Join(client.Presets(), ", "))
		timeout  = fs.Duration("timeout", 15*time.Second, "request timeout")
		verbose  = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	sysutil.SetupLogger(level, true, stderr)

	url := sysutil.FirstNonEmpty(*endpoint, os.Getenv("CONTACT_ENDPOINT"), defaultEndpoint)
	f := client.New(url)
	_ = f.Set(domain.FieldName, *name)
	_ = f.Set(domain.FieldEmail, *email)
	_ = f.Set(domain.FieldMessage, *message)
	if *preset != "" {
		f.AppendPreset(*preset)
	}
	log.Debug().Str("endpoint", url).Int("message_len", f.MessageLen()).Msg("submitting")

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	s, err := f.Submit(ctx)
	if err != nil {
		log.Error().Err(err).Msg("submit")
		return 1
	}
	fmt.Fprintln(stdout, s.Notice)
	if s.Status == domain.StatusOK {
		return 0
	}

	fields := make([]string, 0, len(s.Errors))
	for field := range s.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(stdout, "  %s: %s\n", field, strings.Join(s.Errors[field], "; "))
	}
	return 1
}

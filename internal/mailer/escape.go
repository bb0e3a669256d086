package mailer

import (
	"net/mail"
	"strings"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML replaces & < > " ' with their entities. It must be applied to
// every user-supplied value before it is interpolated into an HTML body.
func EscapeHTML(s string) string { return htmlReplacer.Replace(s) }

var headerReplacer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// SanitizeHeader collapses line breaks so a value cannot start a new header.
func SanitizeHeader(s string) string {
	return strings.TrimSpace(headerReplacer.Replace(s))
}

// FormatAddress renders an RFC 5322 mailbox. The display name is quoted, or
// RFC 2047 encoded when it is not ASCII, so the address stays outside it.
func FormatAddress(name, addr string) string {
	return (&mail.Address{Name: SanitizeHeader(name), Address: SanitizeHeader(addr)}).String()
}

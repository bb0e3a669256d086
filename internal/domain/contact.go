// Package domain defines the contact submission model shared by the HTTP
// endpoint and the client-side submission controller. Both sides validate
// with the same rules (see Validate), so a submission that passes locally
// passes the server unless the server-side state (rate limits, transport)
// says otherwise.
package domain

// Wire-level field names. These are also the keys of FieldErrors.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
	// FieldWebsite is the honeypot. Browsers render it off-screen and humans
	// never fill it in.
	FieldWebsite = "website"
)

// Length bounds for the free-text fields, counted in runes after NFC
// normalisation.
const (
	NameMinLen    = 2
	NameMaxLen    = 80
	MessageMinLen = 10
	MessageMaxLen = 4000
)

// ContactInput is the untrusted JSON body of POST /api/contact. Missing fields
// decode as empty strings.
type ContactInput struct {
	Name    string `json:"name"    validate:"min=2,max=80"     example:"Ada"`
	Email   string `json:"email"   validate:"contact_email"   example:"ada@example.com"`
	Message string `json:"message" validate:"min=10,max=4000" example:"Hello, this is a test message."`
	Website string `json:"website" validate:"max=0"           example:""`
}

// ContactSubmission is a validated submission. Values are only produced by
// Validate; the honeypot is guaranteed empty and therefore not carried.
type ContactSubmission struct {
	Name    string
	Email   string
	Message string
}

// Input converts the submission back to its wire shape (with an empty
// honeypot), which is what the client posts to the server.
func (s ContactSubmission) Input() ContactInput {
	return ContactInput{Name: s.Name, Email: s.Email, Message: s.Message}
}

// FieldErrors maps a wire field name to its human-readable violation
// messages. Fields without violations are absent.
type FieldErrors map[string][]string

// Has reports whether field has at least one message.
func (fe FieldErrors) Has(field string) bool { return len(fe[field]) > 0 }

// First returns the first message for field or "".
func (fe FieldErrors) First(field string) string {
	if msgs := fe[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Clone returns a deep copy; nil stays nil.
func (fe FieldErrors) Clone() FieldErrors {
	if fe == nil {
		return nil
	}
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// SubmissionStatus is the client-side lifecycle of one form instance.
type SubmissionStatus string

const (
	StatusIdle    SubmissionStatus = "idle"
	StatusSending SubmissionStatus = "sending"
	StatusOK      SubmissionStatus = "ok"
	StatusErr     SubmissionStatus = "err"
)

// Package client drives a contact form against POST /api/contact.
//
// A Form holds one draft and walks it through idle → sending → ok|err. The
// draft is validated locally with the same rules the server applies, so the
// server is only contacted for submissions that can succeed. At most one
// submission is in flight per Form; a second Submit while sending returns
// ErrInFlight and changes nothing.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"

	"github.com/tbourn/go-contact-backend/internal/domain"
)

// Status texts shown next to the form.
const (
	MsgFixFields  = "Please correct the highlighted fields."
	MsgSendFailed = "Failed to send message."
	MsgNetwork    = "Network error."
	MsgSent       = "Message sent. Thanks!"
)

const (
	defaultTimeout = 15 * time.Second
	maxReplyBytes  = 64 << 10
	presetHint     = "Briefly describe the goal, timeline, and reference links."
)

var (
	// ErrInFlight is returned by Submit while a previous submission is sending.
	ErrInFlight = errors.New("submission already in flight")
	// ErrUnknownField is returned by Set for names outside the wire schema.
	ErrUnknownField = errors.New("unknown form field")
)

var presets = []string{
	"Project inquiry",
	"Bug/Support on my repo",
	"Collaboration",
}

// Presets returns the quick-start topics accepted by AppendPreset.
func Presets() []string { return append([]string(nil), presets...) }

// State is a point-in-time copy of a Form.
type State struct {
	Draft  domain.ContactInput
	Status domain.SubmissionStatus
	// Notice is the form-level text for the current status ("" while idle or
	// sending).
	Notice string
	Errors domain.FieldErrors
}

// reply is the server envelope. Every field is optional.
type reply struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Errors  domain.FieldErrors `json:"errors"`
}

// Form is a single contact form instance. It is safe for concurrent use.
type Form struct {
	endpoint string
	http     *http.Client

	mu     sync.Mutex
	draft  domain.ContactInput
	status domain.SubmissionStatus
	notice string
	errs   domain.FieldErrors
}

// Option configures a Form.
type Option func(*Form)

// WithHTTPClient replaces the default client (15s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Form) {
		if c != nil {
			f.http = c
		}
	}
}

// New returns an idle Form posting to endpoint, e.g.
// "https://example.com/api/contact".
func New(endpoint string, opts ...Option) *Form {
	f := &Form{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
		status:   domain.StatusIdle,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Set updates one draft field by its wire name and clears that field's
// displayed error. The status is left alone.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case domain.FieldName:
		f.draft.Name = value
	case domain.FieldEmail:
		f.draft.Email = value
	case domain.FieldMessage:
		f.draft.Message = value
	case domain.FieldWebsite:
		f.draft.Website = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(f.errs, field)
	return nil
}

// AppendPreset adds a topic line to the message. An empty message gets the
// topic plus a short hint instead.
func (f *Form) AppendPreset(preset string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.draft.Message != "" {
		f.draft.Message += "\n\n- " + preset
	} else {
		f.draft.Message = "- " + preset + "\n\n" + presetHint
	}
	delete(f.errs, domain.FieldMessage)
}

// AppendText adds a paragraph to the message.
func (f *Form) AppendText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.draft.Message != "" {
		f.draft.Message += "\n\n"
	}
	f.draft.Message += text
	delete(f.errs, domain.FieldMessage)
}

// MessageLen is the message length in runes.
func (f *Form) MessageLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return utf8.RuneCountInString(f.draft.Message)
}

// Status reports the current lifecycle state.
func (f *Form) Status() domain.SubmissionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Snapshot copies the current state.
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Form) snapshotLocked() State {
	return State{
		Draft:  f.draft,
		Status: f.status,
		Notice: f.notice,
		Errors: f.errs.Clone(),
	}
}

// Submit validates the draft and, when it passes, posts it and waits for the
// outcome. The returned State reflects the result; the error is non-nil only
// for ErrInFlight. The draft survives every failure and is cleared on
// success, except for fields edited while the request was in flight.
func (f *Form) Submit(ctx context.Context) (State, error) {
	f.mu.Lock()
	if f.status == domain.StatusSending {
		s := f.snapshotLocked()
		f.mu.Unlock()
		return s, ErrInFlight
	}

	sub, err := domain.Validate(f.draft)
	if err != nil {
		var verr *domain.ValidationError
		fe := domain.FieldErrors{}
		if errors.As(err, &verr) {
			fe = verr.FieldErrors()
		}
		f.status, f.notice, f.errs = domain.StatusErr, MsgFixFields, fe
		s := f.snapshotLocked()
		f.mu.Unlock()
		return s, nil
	}

	sent := f.draft
	f.status, f.notice, f.errs = domain.StatusSending, "", nil
	f.mu.Unlock()

	status, notice, fe := f.post(ctx, sub.Input())

	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.notice, f.errs = status, notice, fe
	if status == domain.StatusOK {
		f.draft = clearSent(f.draft, sent)
	}
	return f.snapshotLocked(), nil
}

// clearSent empties the fields of cur that still hold the submitted value.
// Edits made while the request was in flight are kept.
func clearSent(cur, sent domain.ContactInput) domain.ContactInput {
	keep := func(c, s string) string {
		if c == s {
			return ""
		}
		return c
	}
	return domain.ContactInput{
		Name:    keep(cur.Name, sent.Name),
		Email:   keep(cur.Email, sent.Email),
		Message: keep(cur.Message, sent.Message),
		Website: keep(cur.Website, sent.Website),
	}
}

// post performs the request and maps the response to a result.
func (f *Form) post(ctx context.Context, in domain.ContactInput) (domain.SubmissionStatus, string, domain.FieldErrors) {
	body, err := sonic.Marshal(in)
	if err != nil {
		return domain.StatusErr, MsgSendFailed, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.StatusErr, MsgNetwork, nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return domain.StatusErr, MsgNetwork, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return domain.StatusErr, MsgNetwork, nil
	}

	var rep reply
	if err := sonic.Unmarshal(raw, &rep); err != nil {
		return domain.StatusErr, MsgSendFailed, nil
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok && rep.Success {
		return domain.StatusOK, MsgSent, nil
	}

	notice := strings.TrimSpace(rep.Message)
	switch {
	case notice != "":
	case resp.StatusCode == http.StatusBadRequest:
		notice = MsgFixFields
	default:
		notice = MsgSendFailed
	}
	return domain.StatusErr, notice, rep.Errors.Clone()
}

package domain

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// ViolationCode classifies a single field failure.
type ViolationCode string

const (
	TooShort      ViolationCode = "too_short"
	TooLong       ViolationCode = "too_long"
	InvalidFormat ViolationCode = "invalid_format"
	NotEmpty      ViolationCode = "not_empty"
)

// Violation is one failed rule on one field.
type Violation struct {
	Field   string
	Code    ViolationCode
	Message string
}

// ValidationError carries every violation found in a candidate submission.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "invalid submission"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+string(v.Code))
	}
	return "invalid submission: " + strings.Join(parts, ", ")
}

// Is lets callers match any validation failure with errors.Is(err, ErrInvalid).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// FieldErrors flattens the violations into the wire map. A ValidationError
// without violations (malformed body) yields an empty, non-nil map.
func (e *ValidationError) FieldErrors() FieldErrors {
	out := FieldErrors{}
	if e == nil {
		return out
	}
	for _, v := range e.Violations {
		out[v.Field] = append(out[v.Field], v.Message)
	}
	return out
}

// Has reports whether field failed with code.
func (e *ValidationError) Has(field string, code ViolationCode) bool {
	if e == nil {
		return false
	}
	for _, v := range e.Violations {
		if v.Field == field && v.Code == code {
			return true
		}
	}
	return false
}

// ErrInvalid matches every *ValidationError.
var ErrInvalid = errors.New("invalid submission")

// Malformed is the ValidationError used when the body could not be decoded.
func Malformed() *ValidationError { return &ValidationError{} }

// emailRE: local-part "@" domain, the domain containing a dot, no whitespace.
var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var messages = map[string]map[ViolationCode]string{
	FieldName: {
		TooShort: "Name is too short",
		TooLong:  "Name is too long",
	},
	FieldEmail: {
		InvalidFormat: "Invalid email",
	},
	FieldMessage: {
		TooShort: "Message is too short",
		TooLong:  "Message is too long",
	},
	// Bots get the same generic rejection as any other bad field.
	FieldWebsite: {
		NotEmpty: "Invalid submission",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailRE.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Normalize applies NFC normalisation to the free-text fields. The honeypot
// is left untouched.
func Normalize(in ContactInput) ContactInput {
	return ContactInput{
		Name:    norm.NFC.String(in.Name),
		Email:   norm.NFC.String(in.Email),
		Message: norm.NFC.String(in.Message),
		Website: in.Website,
	}
}

// Validate checks a candidate against the contact schema. It never stops at
// the first failure: the returned *ValidationError lists every offending
// field so a form can highlight all of them at once.
func Validate(in ContactInput) (ContactSubmission, error) {
	in = Normalize(in)

	err := validate.Struct(in)
	if err == nil {
		return ContactSubmission{Name: in.Name, Email: in.Email, Message: in.Message}, nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return ContactSubmission{}, err
	}

	verr := &ValidationError{Violations: make([]Violation, 0, len(ves))}
	for _, fe := range ves {
		field := fe.Field()
		code := codeFor(field, fe.Tag())
		verr.Violations = append(verr.Violations, Violation{
			Field:   field,
			Code:    code,
			Message: messageFor(field, code),
		})
	}
	sort.SliceStable(verr.Violations, func(i, j int) bool {
		return fieldOrder(verr.Violations[i].Field) < fieldOrder(verr.Violations[j].Field)
	})
	return ContactSubmission{}, verr
}

func codeFor(field, tag string) ViolationCode {
	switch tag {
	case "min":
		return TooShort
	case "max":
		if field == FieldWebsite {
			return NotEmpty
		}
		return TooLong
	default:
		return InvalidFormat
	}
}

func messageFor(field string, code ViolationCode) string {
	if m, ok := messages[field][code]; ok {
		return m
	}
	return "Invalid value"
}

func fieldOrder(field string) int {
	switch field {
	case FieldName:
		return 0
	case FieldEmail:
		return 1
	case FieldMessage:
		return 2
	default:
		return 3
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-contact-backend/internal/domain"
	"github.com/tbourn/go-contact-backend/internal/http/middleware"
	"github.com/tbourn/go-contact-backend/internal/services"
)

type stubContactSvc struct {
	fn    func(ctx context.Context, clientID string, in domain.ContactInput) error
	calls int
}

func (s *stubContactSvc) Submit(ctx context.Context, clientID string, in domain.ContactInput) error {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, clientID, in)
	}
	return nil
}

func newContactRouter(svc ContactService, logBuf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if logBuf != nil {
		logger := zerolog.New(logBuf)
		r.Use(func(c *gin.Context) {
			c.Set("logger", &logger)
			c.Next()
		})
	}
	r.Use(middleware.ClientIdentity(true))
	r.POST("/api/contact", New(svc).SubmitContact)
	return r
}

func postContact(r http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

const validBody = `{"name":"Ada","email":"ada@example.com","message":"Hello, this is a test message.","website":""}`

func TestSubmitContact_Success(t *testing.T) {
	var gotID string
	var gotIn domain.ContactInput
	svc := &stubContactSvc{fn: func(_ context.Context, id string, in domain.ContactInput) error {
		gotID, gotIn = id, in
		return nil
	}}
	r := newContactRouter(svc, nil)

	w := postContact(r, validBody, map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"success":true}` {
		t.Fatalf("body=%s", w.Body.String())
	}
	if gotID != "203.0.113.7" {
		t.Fatalf("client id = %q", gotID)
	}
	if gotIn.Name != "Ada" || gotIn.Email != "ada@example.com" || gotIn.Website != "" {
		t.Fatalf("decoded input = %+v", gotIn)
	}
}

func TestSubmitContact_MalformedBody(t *testing.T) {
	for _, body := range []string{``, `{`, `not json`, `{"name":5}`, `[]`} {
		t.Run(fmt.Sprintf("%q", body), func(t *testing.T) {
			svc := &stubContactSvc{}
			r := newContactRouter(svc, nil)
			w := postContact(r, body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d", w.Code)
			}
			if w.Body.String() != `{"success":false,"errors":{}}` {
				t.Fatalf("body=%s", w.Body.String())
			}
			if svc.calls != 0 {
				t.Fatalf("service called for malformed body")
			}
		})
	}
}

func TestSubmitContact_ValidationError(t *testing.T) {
	svc := &stubContactSvc{fn: func(_ context.Context, _ string, in domain.ContactInput) error {
		_, err := domain.Validate(in)
		return err
	}}
	r := newContactRouter(svc, nil)

	w := postContact(r, `{"name":"A","email":"nope","message":"short","website":""}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ValidationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Success {
		t.Fatalf("success must be false")
	}
	want := map[string]string{
		"name":    "Name is too short",
		"email":   "Invalid email",
		"message": "Message is too short",
	}
	for field, msg := range want {
		if resp.Errors.First(field) != msg {
			t.Fatalf("errors[%s] = %v, want %q", field, resp.Errors[field], msg)
		}
	}
	// validation failures carry no top-level message
	if strings.HasPrefix(w.Body.String(), `{"success":false,"message"`) {
		t.Fatalf("unexpected message in body: %s", w.Body.String())
	}
}

func TestSubmitContact_HoneypotLooksLikeValidation(t *testing.T) {
	svc := &stubContactSvc{fn: func(_ context.Context, _ string, in domain.ContactInput) error {
		_, err := domain.Validate(in)
		return err
	}}
	r := newContactRouter(svc, nil)

	body := `{"name":"Ada","email":"ada@example.com","message":"Hello, this is a test message.","website":"spam"}`
	w := postContact(r, body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Body.String() != `{"success":false,"errors":{"website":["Invalid submission"]}}` {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestSubmitContact_BareInvalidSentinel(t *testing.T) {
	svc := &stubContactSvc{fn: func(context.Context, string, domain.ContactInput) error {
		return services.ErrInvalidSubmission
	}}
	w := postContact(newContactRouter(svc, nil), validBody, nil)
	if w.Code != http.StatusBadRequest || w.Body.String() != `{"success":false,"errors":{}}` {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitContact_DispatchFailureIsOpaque(t *testing.T) {
	cause := errors.New("535 5.7.8 Username and Password not accepted")
	svc := &stubContactSvc{fn: func(context.Context, string, domain.ContactInput) error {
		return fmt.Errorf("%w: %w", services.ErrDispatchFailed, cause)
	}}
	var logs bytes.Buffer
	r := newContactRouter(svc, &logs)

	w := postContact(r, validBody, map[string]string{"X-Real-IP": "198.51.100.4"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Body.String() != `{"success":false,"message":"Server error"}` {
		t.Fatalf("body=%s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "535") {
		t.Fatalf("transport detail leaked: %s", w.Body.String())
	}
	out := logs.String()
	if !strings.Contains(out, "Username and Password not accepted") || !strings.Contains(out, `"client_id":"198.51.100.4"`) {
		t.Fatalf("cause not logged: %s", out)
	}
	if !strings.Contains(out, `"code":"dispatch_failed"`) {
		t.Fatalf("dispatch code not logged: %s", out)
	}
	if strings.Contains(out, "Hello, this is a test message.") {
		t.Fatalf("message body logged: %s", out)
	}
}

func TestSubmitContact_UnexpectedError(t *testing.T) {
	svc := &stubContactSvc{fn: func(context.Context, string, domain.ContactInput) error {
		return services.ErrNotConfigured
	}}
	w := postContact(newContactRouter(svc, nil), validBody, nil)
	if w.Code != http.StatusInternalServerError || w.Body.String() != `{"success":false,"message":"Server error"}` {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestClientID_Placeholder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	if got := clientID(c); got != middleware.PlaceholderClientID {
		t.Fatalf("clientID = %q", got)
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitContact_RejectionsLogCode(t *testing.T) {
	validate := func(_ context.Context, _ string, in domain.ContactInput) error {
		_, err := domain.Validate(in)
		return err
	}
	cases := []struct {
		name   string
		body   string
		fn     func(context.Context, string, domain.ContactInput) error
		code   string
		fields string
	}{
		{"malformed", `{`, nil, ErrCodeMalformed, `"fields":[]`},
		{"invalid", `{"name":"A","email":"ada@example.com","message":"Hello, this is a test message."}`, validate, ErrCodeInvalid, `"fields":["name"]`},
		{"bare sentinel", validBody, func(context.Context, string, domain.ContactInput) error {
			return services.ErrInvalidSubmission
		}, ErrCodeBadRequest, `"fields":[]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := postContact(newContactRouter(&stubContactSvc{fn: tc.fn}, &buf), tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d", w.Code)
			}
			logs := buf.String()
			if !strings.Contains(logs, `"level":"debug"`) || !strings.Contains(logs, `"code":"`+tc.code+`"`) || !strings.Contains(logs, tc.fields) {
				t.Fatalf("log = %s", logs)
			}
			if strings.Contains(w.Body.String(), tc.code) {
				t.Fatalf("code leaked into body: %s", w.Body.String())
			}
		})
	}
}

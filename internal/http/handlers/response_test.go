package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-contact-backend/internal/domain"
)

func Test_fail_500_LogsAndHidesCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, MsgServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Body.String(); got != `{"success":false,"message":"Server error"}` {
		t.Fatalf("unexpected body: %s", got)
	}
	logs := buf.String()
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"code":"internal_error"`) {
		t.Fatalf("expected error log with code, got: %s", logs)
	}
}

func Test_Fail_4xx_NotLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/missing", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, MsgNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Body.String(); got != `{"success":false,"message":"Not found"}` {
		t.Fatalf("unexpected body: %s", got)
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not be logged by fail: %s", buf.String())
	}
}

func Test_invalid_and_ok(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/empty", func(c *gin.Context) { invalid(c, ErrCodeBadRequest, nil) })
	r.GET("/fields", func(c *gin.Context) {
		invalid(c, ErrCodeInvalid, domain.FieldErrors{"name": {"Name is too short"}})
	})
	r.GET("/ok", func(c *gin.Context) { ok(c) })

	cases := []struct {
		path   string
		status int
		body   string
	}{
		{"/empty", http.StatusBadRequest, `{"success":false,"errors":{}}`},
		{"/fields", http.StatusBadRequest, `{"success":false,"errors":{"name":["Name is too short"]}}`},
		{"/ok", http.StatusOK, `{"success":true}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if w.Code != tc.status {
			t.Fatalf("%s status=%d", tc.path, w.Code)
		}
		if got := w.Body.String(); got != tc.body {
			t.Fatalf("%s body=%s, want %s", tc.path, got, tc.body)
		}
	}
}

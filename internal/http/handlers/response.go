// Package handlers provides the HTTP handlers of the contact API.
//
// This file defines the response envelopes and the helpers that write them.
// Every response of the contact endpoint is one of:
//
//	200 {"success": true}
//	400 {"success": false, "errors": {"<field>": ["..."]}}
//	429 {"success": false, "message": "Rate limit exceeded"}
//	500 {"success": false, "message": "Server error"}
//
// fail() logs 5xx responses with the request-scoped logger. Internal error
// text never reaches the body.
package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-contact-backend/internal/domain"
	"github.com/tbourn/go-contact-backend/internal/http/middleware"
)

// Response is the envelope for success and message-only failures.
type Response struct {
	Success bool `json:"success" example:"true"`
	// Message is omitted on success.
	Message string `json:"message,omitempty" example:"Server error"`
}

// ValidationResponse is the 400 envelope. Errors is always present, possibly
// empty when the body could not be decoded.
type ValidationResponse struct {
	Success bool               `json:"success" example:"false"`
	Errors  domain.FieldErrors `json:"errors" swaggertype:"object"`
}

// fail aborts the request with a message-only failure. code is a stable
// machine-readable value used in logs; it is not sent to the caller.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, Response{Success: false, Message: msg})
}

// Fail is the exported variant of fail() for the router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// invalid aborts with 400 and the field map. A nil map is sent as {}. The
// rejection is logged at debug level with code and the failing fields.
func invalid(c *gin.Context, code string, fe domain.FieldErrors) {
	if fe == nil {
		fe = domain.FieldErrors{}
	}
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	lg := middleware.LoggerFrom(c)
	lg.Debug().
		Str("code", code).
		Strs("fields", fields).
		Msg("contact rejected")
	c.AbortWithStatusJSON(http.StatusBadRequest, ValidationResponse{Success: false, Errors: fe})
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true})
}

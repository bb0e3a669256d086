// Contact HTTP handlers.
//
// This file exposes the mail dispatch endpoint:
//   - POST /api/contact
//
// The handler is transport-thin: it decodes the body, delegates validation
// and dispatch to the contact service, and maps the outcome to one of the
// documented envelopes. Rate limiting and caller identity are handled by
// middleware before the handler runs.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-contact-backend/internal/domain"
	"github.com/tbourn/go-contact-backend/internal/http/middleware"
	"github.com/tbourn/go-contact-backend/internal/services"
)

// ContactService is the behaviour the handler needs from services.
type ContactService interface {
	Submit(ctx context.Context, clientID string, in domain.ContactInput) error
}

// Handlers groups the HTTP handlers and their dependencies.
type Handlers struct {
	contactSvc ContactService
}

// New constructs Handlers bound to the given service.
func New(contactSvc ContactService) *Handlers {
	return &Handlers{contactSvc: contactSvc}
}

// clientID returns the identifier set by middleware.ClientIdentity, falling
// back to the placeholder address.
func clientID(c *gin.Context) string {
	if id := middleware.ClientIDFrom(c); id != "" {
		return id
	}
	return middleware.PlaceholderClientID
}

// SubmitContact godoc
// @ID          submitContact
// @Summary     Send a contact message
// @Description Validates the submission and emails it to the site owner. The
// @Description website field is a honeypot and must be empty.
// @Tags        Contact
// @Accept      json
// @Produce     json
//
// @Param       X-Forwarded-For header string false "Client address chain (first entry is used)" example(203.0.113.7)
// @Param       body            body   domain.ContactInput true "Contact submission"
//
// @Success     200 {object} handlers.Response           "Sent"
// @Failure     400 {object} handlers.ValidationResponse "Invalid or malformed submission"
// @Failure     429 {object} handlers.Response           "Rate limit exceeded"
// @Failure     500 {object} handlers.Response           "Server error"
// @Router      /contact [post]
func (h *Handlers) SubmitContact(c *gin.Context) {
	var in domain.ContactInput
	if err := c.ShouldBindJSON(&in); err != nil {
		// Missing, oversized or non-JSON bodies carry no field detail.
		services.RecordOutcome(services.OutcomeMalformed)
		invalid(c, ErrCodeMalformed, domain.Malformed().FieldErrors())
		return
	}

	id := clientID(c)
	err := h.contactSvc.Submit(c.Request.Context(), id, in)
	if err == nil {
		ok(c)
		return
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		invalid(c, ErrCodeInvalid, verr.FieldErrors())
	case errors.Is(err, services.ErrInvalidSubmission):
		invalid(c, ErrCodeBadRequest, nil)
	default:
		code := ErrCodeInternal
		if errors.Is(err, services.ErrDispatchFailed) {
			code = ErrCodeDispatchFailed
		}
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Err(err).
			Str("client_id", id).
			Str("code", code).
			Msg("contact dispatch failed")
		fail(c, http.StatusInternalServerError, code, MsgServerError)
	}
}

// Health godoc
// @ID       health
// @Summary  Liveness probe
// @Tags     Health
// @Produce  json
// @Success  200 {object} map[string]string
// @Router   /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

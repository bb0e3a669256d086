// Package services defines the business logic behind the contact endpoint.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages and HTTP status codes happens at the
// handler layer.
package services

import (
	"errors"

	"github.com/tbourn/go-contact-backend/internal/domain"
)

var (
	// ErrInvalidSubmission matches every validation failure returned by
	// ContactService.Submit. Use errors.As with *domain.ValidationError to
	// read the field detail.
	ErrInvalidSubmission = domain.ErrInvalid

	// ErrDispatchFailed wraps any error reported by the mail transport. The
	// wrapped cause is for logs only.
	ErrDispatchFailed = errors.New("mail dispatch failed")

	// ErrNotConfigured is returned when the service has no sender or no
	// recipient.
	ErrNotConfigured = errors.New("contact service not configured")
)

// Package handlers defines the error codes attached to API error logs.
//
// Codes are lowercase snake_case. They appear in server logs next to the
// public message so operators can aggregate failures; the public envelope
// only carries the message.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Contact endpoint:
	ErrCodeMalformed      = "malformed_request"
	ErrCodeInvalid        = "invalid_submission"
	ErrCodeDispatchFailed = "dispatch_failed"
)

// Public messages. Kept verbatim because clients display them.
const (
	MsgServerError      = "Server error"
	MsgNotFound         = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
)

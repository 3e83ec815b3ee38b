// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// These symbolic constants are mapped to HTTP responses via the `fail()`
// helper and give clients a stable, machine-readable error taxonomy that
// supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes (bad_request, unauthorized, conflict, …) mirror common
//     HTTP status semantics.
//   - Domain-specific codes cover business outcomes that a status alone
//     cannot convey (e.g. create_failed vs. a validation failure).
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeTransitionFailed = "transition_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

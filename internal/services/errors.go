// Package services defines the business logic for appointments,
// notifications, and accounts. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrAppointmentNotFound indicates that no appointment exists for the
	// given token.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrPatientNotFound indicates that the patient referenced by an
	// appointment (or requested directly) does not exist. During approve and
	// reject this is a hard error that aborts the transition before any
	// state change.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrAlreadyDecided is returned when a transition is attempted on an
	// appointment that is no longer pending, including the case where a
	// concurrent transition won the race (zero-row conditional update).
	ErrAlreadyDecided = errors.New("appointment already decided")

	// ErrMissingField is returned when a required creation field is absent.
	ErrMissingField = errors.New("required field missing")

	// ErrInvalidCredentials is returned on login when the email is unknown
	// or the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrDuplicateAccount is returned when a registration collides with an
	// existing patient id or email.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrWeakPassword is returned when a registration password is shorter
	// than the minimum length.
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

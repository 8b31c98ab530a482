// Package apperr classifies the failures surfaced by the intake and back-office flows.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the error class used to decide how a failure is surfaced
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is raised locally, before any request is sent
	KindValidation
	// KindDomain is a business rule violation signaled by the backend with an error code
	KindDomain
	// KindTransport covers network failures and non-2xx responses without a domain code
	KindTransport
	// KindTelemetry is never surfaced to callers
	KindTelemetry
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDomain:
		return "domain"
	case KindTransport:
		return "transport"
	case KindTelemetry:
		return "telemetry"
	default:
		return "unknown"
	}
}

// Code is a backend or local error code
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeZoneNotConfigured   Code = "ZONE_NOT_CONFIGURED"
	CodeBotDetected         Code = "BOT_DETECTED"
	CodeConsentRequired     Code = "CONSENT_REQUIRED"
	CodeScoreRequired       Code = "SCORE_REQUIRED"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeLeadNotFound        Code = "LEAD_NOT_FOUND"
	CodeAgencyNotFound      Code = "AGENCY_NOT_FOUND"
	CodeAgencyInactive      Code = "AGENCY_INACTIVE"
	CodeReservationTierA    Code = "RESERVATION_ONLY_TIER_A"
	CodeSold                Code = "SOLD"
	CodeReserved            Code = "RESERVED"
	CodeReservedForOther    Code = "RESERVED_FOR_OTHER"
	CodeNoActiveReservation Code = "NO_ACTIVE_RESERVATION"
	CodeZoneNotFound        Code = "ZONE_NOT_FOUND"
	CodeActionNotAllowed    Code = "ACTION_NOT_ALLOWED"
)

// Error is the structured error returned across package boundaries
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	// Field names the offending input for validation errors
	Field string
	// Status is the HTTP status for domain and transport errors
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Field != "":
		return fmt.Sprintf("%s error [%s] %s: %s", e.Kind, e.Code, e.Field, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s error [%s]: %s", e.Kind, e.Code, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s error %s: %s", e.Kind, e.Field, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a local validation error for field
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Field: field, Message: message}
}

// Validationf is Validation with a formatted message
func Validationf(field, format string, args ...interface{}) *Error {
	return Validation(field, fmt.Sprintf(format, args...))
}

// Domain builds a backend-signaled business rule error
func Domain(status int, code Code, message string) *Error {
	return &Error{Kind: KindDomain, Code: code, Status: status, Message: message}
}

// Transport builds a network or protocol error
func Transport(status int, message string, err error) *Error {
	return &Error{Kind: KindTransport, Status: status, Message: message, Err: err}
}

// Telemetry wraps a swallowed event delivery failure for logging
func Telemetry(err error) *Error {
	return &Error{Kind: KindTelemetry, Message: "event delivery failed", Err: err}
}

// As extracts the *Error from err, if any
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or KindUnknown
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// HasCode reports whether err carries code
func HasCode(err error, code Code) bool {
	if e, ok := As(err); ok {
		return e.Code == code
	}
	return false
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsDomain(err error) bool     { return KindOf(err) == KindDomain }
func IsTransport(err error) bool  { return KindOf(err) == KindTransport }

// IsZoneNotConfigured reports the scoring outcome that gets its own user message
func IsZoneNotConfigured(err error) bool {
	return HasCode(err, CodeZoneNotConfigured)
}

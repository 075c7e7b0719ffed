package registration

import (
	"errors"
	"fmt"
)

// Store-level facts. Stores return these (optionally wrapped); the service turns them into *Error.
var (
	ErrNotFound        = errors.New("registration not found")
	ErrPlateTaken      = errors.New("plate already registered")
	ErrConstraint      = errors.New("storage constraint violated")
	ErrVersionConflict = errors.New("registration was modified concurrently")
)

type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindBusinessRule Kind = "business_rule_violation"
	KindDuplicate    Kind = "duplicate_entry"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "version_conflict"
	KindIntegrity    Kind = "storage_integrity_error"
	KindUpstream     Kind = "upstream_service_error"
	KindInternal     Kind = "internal_error"
)

// Error is what the service layer returns to callers. Message is safe to show;
// Cause is for logs only.
type Error struct {
	Kind           Kind
	Message        string
	Plate          string
	RegistrationID string
	Cause          error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf reports the kind of err. Anything that is not an *Error is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewBusinessRuleError(message string) *Error {
	return &Error{Kind: KindBusinessRule, Message: message}
}

func NewDuplicatePlateError(plate string, cause error) *Error {
	return &Error{
		Kind:    KindDuplicate,
		Message: fmt.Sprintf("plate %s is already registered", plate),
		Plate:   plate,
		Cause:   cause,
	}
}

func NewNotFoundError(id string) *Error {
	return &Error{
		Kind:           KindNotFound,
		Message:        fmt.Sprintf("registration %s not found", id),
		RegistrationID: id,
	}
}

func NewVersionConflictError(id string, cause error) *Error {
	return &Error{
		Kind:           KindConflict,
		Message:        fmt.Sprintf("registration %s was modified; reload and retry", id),
		RegistrationID: id,
		Cause:          cause,
	}
}

func NewIntegrityError(plate string, cause error) *Error {
	return &Error{
		Kind:    KindIntegrity,
		Message: "data integrity violation; possible duplicate or violated constraint",
		Plate:   plate,
		Cause:   cause,
	}
}

func NewUpstreamError(id, message string, cause error) *Error {
	return &Error{
		Kind:           KindUpstream,
		Message:        message,
		RegistrationID: id,
		Cause:          cause,
	}
}

func NewInternalError(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

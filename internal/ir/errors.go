package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes record store errors.
type ErrorCode string

const (
	// CodeNotFound means no record or edge exists. Callers treat it as the
	// valid "absent" state for singleton reads.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeChainBroken means a hash in an update chain cannot be fetched.
	CodeChainBroken ErrorCode = "CHAIN_BROKEN"

	// CodeUnauthorized means a revision's author differs from the author of the
	// revision it updates or deletes.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeDuplicateState means a singleton kind has more than one edge.
	CodeDuplicateState ErrorCode = "DUPLICATE_STATE"

	// CodeMigrationFieldMissing means a bundle lacks a field the current
	// registry expects. Informational: the field is filled with its default.
	CodeMigrationFieldMissing ErrorCode = "MIGRATION_FIELD_MISSING"

	// CodeAlreadyExists means a create-once record already has an edge.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeInvalidKind means the kind is unknown or does not support the operation.
	CodeInvalidKind ErrorCode = "INVALID_KIND"

	// CodeInvalidPayload means a payload does not match its kind's schema.
	CodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"

	// CodeUnsupportedVersion means an export bundle carries an unknown schema version.
	CodeUnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"
)

// Sentinel errors for errors.Is matching. Any *Error with the same code matches.
var (
	ErrNotFound              = &Error{Code: CodeNotFound, Message: "not found"}
	ErrChainBroken           = &Error{Code: CodeChainBroken, Message: "chain broken"}
	ErrUnauthorized          = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrDuplicateState        = &Error{Code: CodeDuplicateState, Message: "duplicate state"}
	ErrMigrationFieldMissing = &Error{Code: CodeMigrationFieldMissing, Message: "migration field missing"}
	ErrAlreadyExists         = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrInvalidKind           = &Error{Code: CodeInvalidKind, Message: "invalid kind"}
	ErrInvalidPayload        = &Error{Code: CodeInvalidPayload, Message: "invalid payload"}
	ErrUnsupportedVersion    = &Error{Code: CodeUnsupportedVersion, Message: "unsupported version"}
)

// Error is a typed record store error with structured context.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the record kind involved, if any.
	Kind Kind

	// Hash is the entry hash involved, if any.
	Hash Hash

	// Err is the underlying cause, if any.
	Err error
}

// NewError creates an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithKind returns a copy of the error annotated with a kind.
func (e *Error) WithKind(kind Kind) *Error {
	c := *e
	c.Kind = kind
	return &c
}

// WithHash returns a copy of the error annotated with an entry hash.
func (e *Error) WithHash(hash Hash) *Error {
	c := *e
	c.Hash = hash
	return &c
}

// Wrap returns a copy of the error with an underlying cause.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Kind != "" {
		msg += fmt.Sprintf(" (kind=%s", e.Kind)
		if e.Hash != "" {
			msg += fmt.Sprintf(", hash=%s", e.Hash.Short())
		}
		msg += ")"
	} else if e.Hash != "" {
		msg += fmt.Sprintf(" (hash=%s)", e.Hash.Short())
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound)
// works for every NOT_FOUND error regardless of its context fields.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the error code from err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound returns true if err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsChainBroken returns true if err is a CHAIN_BROKEN error.
func IsChainBroken(err error) bool {
	return errors.Is(err, ErrChainBroken)
}

// IsUnauthorized returns true if err is an UNAUTHORIZED error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

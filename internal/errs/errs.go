// Package errs provides the kind-tagged error type shared by the gateway,
// the store and the console API.
package errs

import (
	"errors"
	"fmt"
)

// Error is the base error type. Two errors match under errors.Is when their
// kinds are equal.
type Error struct {
	// Kind indicates the category of error.
	Kind Kind

	// Op is the operation being performed (e.g. "gateway.AnalyzeEmail").
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying error.
	Err error
}

// Kind represents the category of an error.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindNotFound
	KindAuthentication
	KindEmptyResponse
	KindMalformedResponse
	KindTransport
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication_required"
	case KindEmptyResponse:
		return "empty_response"
	case KindMalformedResponse:
		return "malformed_response"
	case KindTransport:
		return "transport"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// E constructs an Error from its arguments. Arguments can be a Kind, strings
// (the first is Op, the second Message) and an error.
func E(args ...any) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case string:
			if e.Op == "" {
				e.Op = a
			} else {
				e.Message = a
			}
		case error:
			e.Err = a
		}
	}
	return e
}

// GetKind returns the Kind of err, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Sentinels for errors.Is checks. Only the kind is compared.
var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrNotFound     = &Error{Kind: KindNotFound}

	// ErrAuthenticationRequired means the model service rejected the selected
	// credential, or none is selected. Callers should prompt for a new key.
	ErrAuthenticationRequired = &Error{Kind: KindAuthentication}

	// ErrEmptyResponse means the model service returned no text payload.
	ErrEmptyResponse = &Error{Kind: KindEmptyResponse}

	// ErrMalformedResponse means the payload was not valid JSON.
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}

	// ErrTransport covers every other failure of the model call.
	ErrTransport = &Error{Kind: KindTransport}

	ErrStorage = &Error{Kind: KindStorage}
)

func IsAuthenticationRequired(err error) bool { return GetKind(err) == KindAuthentication }
func IsEmptyResponse(err error) bool          { return GetKind(err) == KindEmptyResponse }
func IsMalformedResponse(err error) bool      { return GetKind(err) == KindMalformedResponse }
func IsTransport(err error) bool              { return GetKind(err) == KindTransport }
func IsInvalidInput(err error) bool           { return GetKind(err) == KindInvalidInput }
func IsNotFound(err error) bool               { return GetKind(err) == KindNotFound }

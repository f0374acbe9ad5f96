package errs

import (
	"fmt"
	"net/http"
)

// StatusError is a failure reported by the model service together with its
// HTTP code and, when the provider sends one, a symbolic status.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("model service error %d %s: %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("model service error %d: %s", e.Code, e.Message)
}

// CredentialRejected reports whether the service refused the API key or the
// project behind it.
func (e *StatusError) CredentialRejected() bool {
	switch e.Status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED", "NOT_FOUND":
		return true
	}
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

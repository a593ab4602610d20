package app

import (
	"fmt"
	"net/http"
)

// DomainError is a request failure the client is expected to act on. Status
// is the HTTP status it renders as, Code is a stable machine-readable
// identifier, and Details carries optional field-level context.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// invalidInput rejects a request body that failed platform validation.
func invalidInput(message string, details any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, details)
}

// notFound reports a missing post, campaign, proposal, or other entity by
// the message shown to the client.
func notFound(message string, details any) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, details)
}

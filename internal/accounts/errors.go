package accounts

import "errors"

var (
	// ErrValidation is returned when a required registration field is
	// missing.
	ErrValidation = errors.New("accounts: email, password, name, and institution are required")
	// ErrDuplicateEmail is returned when the normalized email is taken.
	ErrDuplicateEmail = errors.New("accounts: email already registered")
	// ErrWeakPassword is returned for passwords shorter than 6 characters.
	ErrWeakPassword = errors.New("accounts: password must be at least 6 characters")
	// ErrUnknownEmail is returned by login when no account matches.
	ErrUnknownEmail = errors.New("accounts: email not found")
	// ErrInvalidCredentials is returned by login on a password mismatch.
	ErrInvalidCredentials = errors.New("accounts: invalid password")
)

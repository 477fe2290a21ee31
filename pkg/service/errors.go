package service

import "errors"

// Public error kinds of the access-control boundary. Absent, expired, and
// at-limit records all surface as ErrNotFound so probing callers learn
// nothing about lifecycle state.
var (
	ErrNotFound          = errors.New("not found")
	ErrPasswordRequired  = errors.New("password required")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrValidation        = errors.New("invalid request")
)

// IsNotFound reports whether err is the conflated not-found outcome.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a creation validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

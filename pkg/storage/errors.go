package storage

import "errors"

var (
	// ErrNotFound means no record exists for the identifier.
	ErrNotFound = errors.New("record not found")
	// ErrExpired means the record exists but its expiry time has passed.
	ErrExpired = errors.New("record expired")
	// ErrAtLimit means the record exists but its view ceiling is reached.
	ErrAtLimit = errors.New("view limit reached")
	// ErrDuplicateID means an insert collided with an existing identifier.
	ErrDuplicateID = errors.New("identifier already exists")
)

// IsGone reports whether err is any of the conditions that make a record
// behave as nonexistent to an anonymous caller.
func IsGone(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) || errors.Is(err, ErrAtLimit)
}

package store

import "errors"

var (
	// ErrNotFound is returned when a user or blob does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned when creating a user whose username exists.
	ErrUsernameTaken = errors.New("username already exists")
)

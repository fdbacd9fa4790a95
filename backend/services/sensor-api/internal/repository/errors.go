package repository

import "errors"

var (
	// ErrUserNotFound represents a missing user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when the unique username constraint rejects an insert.
	ErrDuplicateUsername = errors.New("username already exists")
)

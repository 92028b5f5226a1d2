// Package common defines sentinel errors shared by the storage, service and
// transport layers. Callers match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound            = errors.New("not found")
	ErrDuplicateUsername   = errors.New("username already taken")
	ErrDatabaseUnavailable = errors.New("database unavailable")

	// Service-level errors.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrUploadsDisabled    = errors.New("uploads are not configured")
)

// Package service implements the blog's use cases on top of the entity
// store, the slug assigner and the access policy engine. Every method
// that needs an identity takes the caller explicitly.
package service

import (
	"errors"
	"fmt"

	"github.com/inkwell/inkwell/internal/policy"
)

// Service errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrUserNotFound     = fmt.Errorf("user %w", policy.ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", policy.ErrNotFound)
	ErrPostNotFound     = fmt.Errorf("post %w", policy.ErrNotFound)
	ErrCommentNotFound  = fmt.Errorf("comment %w", policy.ErrNotFound)
)

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is makes errors.Is(err, ErrValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// credentialsError carries a user-facing login failure message.
type credentialsError struct {
	message string
}

func (e *credentialsError) Error() string { return e.message }

func (e *credentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

var (
	errNoUserWithEmail    = &credentialsError{"No user found with this email address."}
	errNoUserWithUsername = &credentialsError{"No user found with this username."}
	errIncorrectPassword  = &credentialsError{"Incorrect password."}
)

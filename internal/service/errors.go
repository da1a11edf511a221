// Package service provides business logic for accounts and the post feed.
package service

import (
	"errors"
	"strings"
)

// Service errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrNoAccount          = errors.New("no user found for email")
	ErrNotCreator         = errors.New("requester is not the post creator")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrEmailTaken         = errors.New("email address already exists")
	ErrImageMissing       = errors.New("no image attached")
)

// Messages carried by validation failures.
const (
	MsgValidationFailed = "Validation failed!"
	MsgNoImageAdded     = "No image added!"
	MsgNoImageProvided  = "No image provided."
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field    string `json:"path"`
	Value    string `json:"value"`
	Message  string `json:"msg"`
	Location string `json:"location"`
}

// ValidationError is returned when input fails validation.
// Err, when set, is the sentinel behind the failure (e.g. ErrEmailTaken).
type ValidationError struct {
	Message string
	Fields  []FieldError
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Message: MsgValidationFailed, Fields: fields}
}

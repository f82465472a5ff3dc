package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks input the client got wrong; see ValidationError for the messages.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateUsername is returned when a username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a request carries no usable identity.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrTokenInvalid indicates a bad signature, malformed token or elapsed expiry.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrForbidden is returned when an authenticated user does not own the quiz.
	ErrForbidden = errors.New("not authorized to add questions to this quiz")
	// ErrUserNotFound indicates the user id does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuizNotFound indicates the quiz is absent or its id is malformed.
	ErrQuizNotFound = errors.New("quiz not found")
)

// ValidationError carries one message per violated rule.
type ValidationError struct {
	Messages []string
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

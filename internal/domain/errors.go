package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrEmptyQuiz is returned when a session is constructed with no questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrSessionNotFound is returned when a session handle is unknown or expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrInvalidOptionIndex indicates an option index outside the question's range.
	ErrInvalidOptionIndex = errors.New("option index out of range")
	// ErrAttemptNotFound indicates an unknown attempt ID.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrExecutionNotConfigured is returned when the remote code-execution
	// service has no credentials configured.
	ErrExecutionNotConfigured = errors.New("code execution service not configured")
)

package app

import (
	"context"

	"learnify-quiz-service/internal/domain"
)

// SessionRepository abstracts how live quiz sessions are tracked
// (in-memory, Redis-backed, etc).
type SessionRepository interface {
	Put(sessionID string, session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptRecorder persists completed quiz passes and their bookkeeping
// flags. Writes are best-effort from the session's point of view: failures
// are logged, never retried, and never roll back local state.
type AttemptRecorder interface {
	SaveAttempt(ctx context.Context, attempt domain.QuizAttempt) error
	MarkFavorite(ctx context.Context, attemptID string, favorite bool) error
	MarkDownloaded(ctx context.Context, attemptID string, quiz domain.Quiz) error
	RecentAttempts(ctx context.Context, limit int) ([]domain.QuizAttempt, error)
}

// CodeExecutor runs a coding submission remotely and reports whether its
// output matched the expected output. May be slow or unreachable; callers
// must tolerate it never returning.
type CodeExecutor interface {
	Execute(ctx context.Context, req domain.CodeExecution) (domain.CodeExecutionResult, error)
}

// EventType identifies a session notification.
type EventType string

const (
	EventQuestionChanged EventType = "questionChanged"
	EventAnswerRecorded  EventType = "answerRecorded"
	EventTimeTick        EventType = "timeTick"
	EventCompleted       EventType = "completed"
)

// Event is a discrete state-change notification emitted to presentation
// subscribers. Notifications never mutate session state.
type Event struct {
	Type            EventType `json:"type"`
	QuestionIndex   int       `json:"questionIndex,omitempty"`
	Correct         bool      `json:"correct,omitempty"`
	RemainingMillis int64     `json:"remainingMillis,omitempty"`
	CorrectCount    int       `json:"correctCount,omitempty"`
	TotalQuestions  int       `json:"totalQuestions,omitempty"`
}

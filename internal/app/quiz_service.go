package app

import (
	"context"

	"github.com/google/uuid"

	"learnify-quiz-service/internal/domain"
)

// QuizService contains the quiz-taking use cases: resolving quiz content,
// minting sessions, and the attempt-history passthroughs.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	recorder AttemptRecorder
	executor CodeExecutor
}

func NewQuizService(sessions SessionRepository, quizzes QuizRepository, recorder AttemptRecorder, executor CodeExecutor) *QuizService {
	return &QuizService{
		sessions: sessions,
		quizzes:  quizzes,
		recorder: recorder,
		executor: executor,
	}
}

// StartQuiz fetches quiz content by ID and opens a session over it. The
// returned handle addresses the session in subsequent calls.
func (s *QuizService) StartQuiz(ctx context.Context, quizID string) (string, *Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", nil, err
	}
	return s.StartQuizWith(quiz)
}

// StartQuizWith opens a session over an already-hydrated quiz, e.g. one just
// produced by the generator and not yet persisted.
func (s *QuizService) StartQuizWith(quiz domain.Quiz) (string, *Session, error) {
	session, err := NewSession(quiz, SessionDeps{
		Recorder: s.recorder,
		Executor: s.executor,
	})
	if err != nil {
		return "", nil, err
	}
	sessionID := uuid.NewString()
	s.sessions.Put(sessionID, session)
	return sessionID, session, nil
}

// Session looks up a live session by handle.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// EndSession cancels the session's timer and releases it. Safe to call for
// unknown handles.
func (s *QuizService) EndSession(sessionID string) {
	if session, ok := s.sessions.Get(sessionID); ok {
		session.Close()
	}
	s.sessions.Delete(sessionID)
}

// MarkFavorite toggles the favorite flag on a stored attempt.
func (s *QuizService) MarkFavorite(ctx context.Context, attemptID string, favorite bool) error {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.MarkFavorite(ctx, attemptID, favorite)
}

// MarkDownloaded flags an attempt as downloaded and stores the full quiz
// payload for offline replay.
func (s *QuizService) MarkDownloaded(ctx context.Context, attemptID string, quiz domain.Quiz) error {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.MarkDownloaded(ctx, attemptID, quiz)
}

// RecentAttempts lists the newest stored attempts, most recent first.
func (s *QuizService) RecentAttempts(ctx context.Context, limit int) ([]domain.QuizAttempt, error) {
	if s.recorder == nil {
		return nil, nil
	}
	return s.recorder.RecentAttempts(ctx, limit)
}

package app_test

import (
	"context"
	"testing"
	"time"

	"learnify-quiz-service/internal/app"
	"learnify-quiz-service/internal/domain"
	"learnify-quiz-service/internal/infra/memory"
)

func TestStartQuizByID(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	sessionID, session, err := service.StartQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	defer service.EndSession(sessionID)

	if session.TotalQuestions() != 2 {
		t.Fatalf("expected 2 questions, got %d", session.TotalQuestions())
	}
	got, err := service.Session(sessionID)
	if err != nil || got != session {
		t.Fatalf("expected session lookup to return the live session, err=%v", err)
	}
}

func TestStartQuizUnknownID(t *testing.T) {
	service := newTestService()
	if _, _, err := service.StartQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestStartQuizWithHydratedContent(t *testing.T) {
	service := newTestService()

	// A freshly generated quiz has no ID yet; the session still runs, it just
	// skips the history write on completion.
	quiz := domain.Quiz{Title: "Ad hoc", Questions: []domain.QuizQuestion{
		{Text: "q", Type: domain.TypeMCQ, Options: []string{"a"}, CorrectAnswer: "a"},
	}}
	sessionID, session, err := service.StartQuizWith(quiz)
	if err != nil {
		t.Fatalf("start hydrated quiz: %v", err)
	}
	defer service.EndSession(sessionID)

	if err := session.SelectOption(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	correct, total := session.Finish()
	if correct != 1 || total != 1 {
		t.Fatalf("expected 1/1, got %d/%d", correct, total)
	}
}

func TestEndSessionReleasesHandle(t *testing.T) {
	service := newTestService()
	sessionID, _, err := service.StartQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}

	service.EndSession(sessionID)
	if _, err := service.Session(sessionID); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	// Idempotent for unknown handles.
	service.EndSession(sessionID)
}

func TestCompletedPassIsRecorded(t *testing.T) {
	recorder := memory.NewAttemptRecorder()
	service := newTestServiceWith(recorder)

	sessionID, session, err := service.StartQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	defer service.EndSession(sessionID)

	if err := session.SelectOption(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	session.Advance()
	if err := session.SelectOption(1); err != nil { // wrong on purpose
		t.Fatalf("select: %v", err)
	}
	session.Advance()

	deadline := time.Now().Add(time.Second)
	for {
		attempts, _ := recorder.RecentAttempts(context.Background(), 5)
		if len(attempts) == 1 {
			if attempts[0].Score != 1 || attempts[0].Total != 2 || attempts[0].Percentage != 50 {
				t.Fatalf("unexpected attempt %+v", attempts[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("attempt never recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestService() *app.QuizService {
	return newTestServiceWith(memory.NewAttemptRecorder())
}

func newTestServiceWith(recorder app.AttemptRecorder) *app.QuizService {
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Go Basics",
			Questions: []domain.QuizQuestion{
				{
					Text:          "Select the right option",
					Type:          domain.TypeMCQ,
					Options:       []string{"Wrong", "Right"},
					CorrectAnswer: "Right",
				},
				{
					Text:          "And again",
					Type:          domain.TypeMCQ,
					Options:       []string{"Right", "Wrong"},
					CorrectAnswer: "Right",
				},
			},
		},
	}), 5*time.Minute)
	return app.NewQuizService(memory.NewSessionStore(), quizRepo, recorder, nil)
}

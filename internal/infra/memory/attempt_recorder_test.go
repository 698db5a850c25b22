package memory

import (
	"context"
	"testing"
	"time"

	"learnify-quiz-service/internal/domain"
)

func TestAttemptRecorderLifecycle(t *testing.T) {
	ctx := context.Background()
	recorder := NewAttemptRecorder()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a1", "a2", "a3"} {
		err := recorder.SaveAttempt(ctx, domain.QuizAttempt{
			AttemptID:   id,
			QuizID:      "quiz-1",
			QuizTitle:   "Go Basics",
			Score:       i,
			Total:       3,
			AttemptedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("save attempt: %v", err)
		}
	}

	recent, err := recorder.RecentAttempts(ctx, 2)
	if err != nil {
		t.Fatalf("recent attempts: %v", err)
	}
	if len(recent) != 2 || recent[0].AttemptID != "a3" || recent[1].AttemptID != "a2" {
		t.Fatalf("expected newest-first [a3 a2], got %+v", recent)
	}

	if err := recorder.MarkFavorite(ctx, "a1", true); err != nil {
		t.Fatalf("mark favorite: %v", err)
	}
	if err := recorder.MarkDownloaded(ctx, "a1", sampleQuiz()); err != nil {
		t.Fatalf("mark downloaded: %v", err)
	}

	all, _ := recorder.RecentAttempts(ctx, 0)
	for _, attempt := range all {
		if attempt.AttemptID == "a1" && (!attempt.IsFavorite || !attempt.IsDownloaded) {
			t.Fatalf("expected a1 favorite and downloaded, got %+v", attempt)
		}
	}

	if _, ok := recorder.Download("quiz-1"); !ok {
		t.Fatalf("expected download payload stored")
	}

	if err := recorder.MarkFavorite(ctx, "missing", true); err != domain.ErrAttemptNotFound {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}

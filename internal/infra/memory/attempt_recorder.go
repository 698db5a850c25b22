package memory

import (
	"context"
	"sort"
	"sync"

	"learnify-quiz-service/internal/domain"
)

// AttemptRecorder keeps quiz history in memory. Used when no database is
// configured, and as the test double for the persistence edge.
type AttemptRecorder struct {
	mu        sync.RWMutex
	attempts  map[string]*domain.QuizAttempt
	downloads map[string]domain.Quiz // keyed by quiz ID
}

func NewAttemptRecorder() *AttemptRecorder {
	return &AttemptRecorder{
		attempts:  make(map[string]*domain.QuizAttempt),
		downloads: make(map[string]domain.Quiz),
	}
}

func (r *AttemptRecorder) SaveAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := attempt
	r.attempts[attempt.AttemptID] = &stored
	return nil
}

func (r *AttemptRecorder) MarkFavorite(_ context.Context, attemptID string, favorite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	attempt.IsFavorite = favorite
	return nil
}

func (r *AttemptRecorder) MarkDownloaded(_ context.Context, attemptID string, quiz domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	attempt.IsDownloaded = true
	r.downloads[quiz.ID] = quiz
	return nil
}

// RecentAttempts returns attempts newest-first, up to limit (<=0: all).
func (r *AttemptRecorder) RecentAttempts(_ context.Context, limit int) ([]domain.QuizAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.QuizAttempt, 0, len(r.attempts))
	for _, attempt := range r.attempts {
		out = append(out, *attempt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AttemptedAt.After(out[j].AttemptedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Download returns the stored quiz payload for offline replay.
func (r *AttemptRecorder) Download(quizID string) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quiz, ok := r.downloads[quizID]
	return quiz, ok
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learnify-quiz-service/internal/domain"
)

// AttemptStore persists quiz history: one row per completed pass, plus the
// favorite flag and a separate downloads table for offline copies.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) SaveAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (id, quiz_id, quiz_title, score, total, percentage, attempted_at, is_favorite, is_downloaded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		attempt.AttemptID, attempt.QuizID, attempt.QuizTitle,
		attempt.Score, attempt.Total, attempt.Percentage,
		attempt.AttemptedAt, attempt.IsFavorite, attempt.IsDownloaded,
	)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) MarkFavorite(ctx context.Context, attemptID string, favorite bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quiz_attempts SET is_favorite=$2 WHERE id=$1`,
		attemptID, favorite,
	)
	if err != nil {
		return fmt.Errorf("mark favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) MarkDownloaded(ctx context.Context, attemptID string, quiz domain.Quiz) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quiz_attempts SET is_downloaded=TRUE WHERE id=$1`,
		attemptID,
	)
	if err != nil {
		return fmt.Errorf("mark downloaded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptNotFound
	}

	data, err := quizJSON(quiz)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_downloads (quiz_id, data, downloaded_at)
		VALUES ($1, $2, now())
		ON CONFLICT (quiz_id) DO UPDATE SET data=EXCLUDED.data, downloaded_at=now()`,
		quiz.ID, data,
	)
	if err != nil {
		return fmt.Errorf("store download: %w", err)
	}
	return nil
}

func (s *AttemptStore) RecentAttempts(ctx context.Context, limit int) ([]domain.QuizAttempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, quiz_id, quiz_title, score, total, percentage, attempted_at, is_favorite, is_downloaded
		FROM quiz_attempts
		ORDER BY attempted_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.QuizAttempt
	for rows.Next() {
		var a domain.QuizAttempt
		if err := rows.Scan(&a.AttemptID, &a.QuizID, &a.QuizTitle,
			&a.Score, &a.Total, &a.Percentage, &a.AttemptedAt, &a.IsFavorite, &a.IsDownloaded); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}
	return attempts, nil
}

// Download returns the offline copy of a quiz, if one was saved.
func (s *AttemptStore) Download(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM quiz_downloads WHERE quiz_id=$1`, quizID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load download: %w", err)
	}
	return quizFromJSON(raw)
}

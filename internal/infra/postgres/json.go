package postgres

import (
	"encoding/json"
	"fmt"

	"learnify-quiz-service/internal/domain"
)

func quizJSON(quiz domain.Quiz) ([]byte, error) {
	data, err := json.Marshal(quiz)
	if err != nil {
		return nil, fmt.Errorf("marshal quiz: %w", err)
	}
	return data, nil
}

func quizFromJSON(raw []byte) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

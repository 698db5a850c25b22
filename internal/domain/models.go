package domain

import (
	"strings"
	"time"
)

// QuestionType distinguishes multiple-choice questions from free-text
// coding exercises.
type QuestionType string

const (
	TypeMCQ    QuestionType = "MCQ"
	TypeCoding QuestionType = "CODING"
)

// Difficulty levels as produced by the question generator.
const (
	DifficultyEasy   = "EASY"
	DifficultyNormal = "NORMAL"
	DifficultyHard   = "HARD"
)

// QuizQuestion is one question in a quiz. The answer-state fields at the
// bottom are owned by the session and reset on retake; everything else is
// fixed once the quiz is loaded.
type QuizQuestion struct {
	ID             int          `json:"id"` // 1-based position, assigned at session setup
	Text           string       `json:"questionText"`
	Type           QuestionType `json:"type"`
	Difficulty     string       `json:"difficulty"`
	Options        []string     `json:"options,omitempty"` // MCQ only
	CorrectAnswer  string       `json:"correctAnswer"`     // matched by exact string equality
	TimeLimit      float64      `json:"timeLimit"`         // minutes; <=0 defaults to 1.0
	Explanation    string       `json:"explanation,omitempty"`
	RelatedTopicID string       `json:"relatedTopicId,omitempty"`

	// Coding-only fields.
	CodingPrompt   string `json:"codingPrompt,omitempty"`
	StarterCode    string `json:"starterCode,omitempty"`
	ExpectedOutput string `json:"expectedOutput,omitempty"`
	Language       string `json:"language,omitempty"`

	// Per-session answer state.
	SelectedOptionIndex int    `json:"selectedOptionIndex"` // -1 = unanswered
	IsAnswered          bool   `json:"isAnswered"`
	IsCorrect           bool   `json:"isCorrect"`
	SubmittedCode       string `json:"-"`
}

// IsCodingQuestion reports whether the question requires a code submission.
func (q *QuizQuestion) IsCodingQuestion() bool {
	return strings.EqualFold(string(q.Type), string(TypeCoding))
}

// ResetAnswer returns the question to its unanswered state.
func (q *QuizQuestion) ResetAnswer() {
	q.SelectedOptionIndex = -1
	q.IsAnswered = false
	q.IsCorrect = false
	q.SubmittedCode = ""
}

// Quiz is an ordered, fixed collection of questions.
type Quiz struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

// QuestionResult is an immutable snapshot of one answered question, produced
// at quiz-completion time for the feedback and recommendation flow.
type QuestionResult struct {
	QuestionNumber int    `json:"questionNumber"`
	RelatedTopicID string `json:"relatedTopicId"`
	QuestionText   string `json:"questionText"`
	YourAnswer     string `json:"yourAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// QuizAttempt is a persisted record of one completed quiz pass.
type QuizAttempt struct {
	AttemptID    string    `json:"attemptId"`
	QuizID       string    `json:"quizId"`
	QuizTitle    string    `json:"quizTitle"`
	Score        int       `json:"score"`
	Total        int       `json:"totalQuestions"`
	Percentage   int       `json:"percentage"`
	AttemptedAt  time.Time `json:"attemptedAt"`
	IsFavorite   bool      `json:"isFavorite"`
	IsDownloaded bool      `json:"isDownloaded"`
}

// CodeExecution is a request to run a coding submission remotely.
type CodeExecution struct {
	Code           string
	Language       string
	ExpectedOutput string
}

// CodeExecutionResult is the outcome of a remote execution.
type CodeExecutionResult struct {
	Output  string
	Success bool // output matched the expected output
}

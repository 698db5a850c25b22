package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnify-quiz-service/internal/app"
	"learnify-quiz-service/internal/domain"
)

func mcq(text string, options []string, correct string) domain.QuizQuestion {
	return domain.QuizQuestion{
		Text:          text,
		Type:          domain.TypeMCQ,
		Options:       options,
		CorrectAnswer: correct,
	}
}

func coding(prompt, expected string) domain.QuizQuestion {
	return domain.QuizQuestion{
		Text:           prompt,
		Type:           domain.TypeCoding,
		CodingPrompt:   prompt,
		ExpectedOutput: expected,
		Language:       "python",
	}
}

func sampleQuiz(questions ...domain.QuizQuestion) domain.Quiz {
	return domain.Quiz{ID: "quiz-1", Title: "Go Basics", Questions: questions}
}

func newTestSession(t *testing.T, quiz domain.Quiz, deps app.SessionDeps) *app.Session {
	t.Helper()
	session, err := app.NewSession(quiz, deps)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []domain.QuizAttempt
}

func (r *fakeRecorder) SaveAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *fakeRecorder) MarkFavorite(context.Context, string, bool) error { return nil }

func (r *fakeRecorder) MarkDownloaded(context.Context, string, domain.Quiz) error { return nil }
func (r *fakeRecorder) RecentAttempts(context.Context, int) ([]domain.QuizAttempt, error) {
	return nil, nil
}

func (r *fakeRecorder) saved() []domain.QuizAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.QuizAttempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}

type fakeExecutor struct {
	mu     sync.Mutex
	calls  int
	result domain.CodeExecutionResult
	err    error
}

func (e *fakeExecutor) Execute(context.Context, domain.CodeExecution) (domain.CodeExecutionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.result, e.err
}

func (e *fakeExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestNewSessionRejectsEmptyQuiz(t *testing.T) {
	_, err := app.NewSession(domain.Quiz{ID: "quiz-1"}, app.SessionDeps{})
	require.ErrorIs(t, err, domain.ErrEmptyQuiz)
}

func TestNewSessionDefaults(t *testing.T) {
	session := newTestSession(t, sampleQuiz(
		domain.QuizQuestion{Text: "q", Type: domain.TypeMCQ, Options: []string{"a"}, CorrectAnswer: "a", TimeLimit: -2},
	), app.SessionDeps{})

	q := session.CurrentQuestion()
	assert.Equal(t, 1, q.ID)
	assert.Equal(t, domain.DifficultyNormal, q.Difficulty)
	assert.Equal(t, -1, q.SelectedOptionIndex)
	// Negative time limits fall back to one minute per question.
	assert.Equal(t, time.Minute, session.RemainingTime())
}

func TestSelectOptionScoring(t *testing.T) {
	session := newTestSession(t, sampleQuiz(
		mcq("2+2?", []string{"3", "4"}, "4"),
		mcq("3+3?", []string{"5", "6"}, "6"),
	), app.SessionDeps{})

	require.NoError(t, session.SelectOption(1)) // correct
	assert.Equal(t, 1, session.CorrectCount())

	// First answer is final: re-selection is a guarded no-op.
	require.NoError(t, session.SelectOption(0))
	assert.Equal(t, 1, session.CorrectCount())
	assert.Equal(t, 1, session.CurrentQuestion().SelectedOptionIndex)

	session.Advance()
	require.NoError(t, session.SelectOption(0)) // wrong
	assert.Equal(t, 1, session.CorrectCount())
	assert.True(t, session.CurrentQuestion().IsAnswered)
	assert.False(t, session.CurrentQuestion().IsCorrect)
}

func TestSelectOptionOutOfRange(t *testing.T) {
	session := newTestSession(t, sampleQuiz(mcq("q", []string{"a", "b"}, "a")), app.SessionDeps{})
	require.ErrorIs(t, session.SelectOption(5), domain.ErrInvalidOptionIndex)
	require.ErrorIs(t, session.SelectOption(-1), domain.ErrInvalidOptionIndex)
	assert.False(t, session.CurrentQuestion().IsAnswered)
}

func TestAdvanceRequiresAnswer(t *testing.T) {
	session := newTestSession(t, sampleQuiz(
		mcq("q1", []string{"a", "b"}, "a"),
		mcq("q2", []string{"a", "b"}, "a"),
	), app.SessionDeps{})

	session.Advance() // unanswered MCQ: no-op
	assert.Equal(t, 0, session.CurrentIndex())

	require.NoError(t, session.SelectOption(0))
	session.Advance()
	assert.Equal(t, 1, session.CurrentIndex())
}

func TestFinishIsIdempotent(t *testing.T) {
	recorder := &fakeRecorder{}
	session := newTestSession(t, sampleQuiz(mcq("q", []string{"a", "b"}, "a")),
		app.SessionDeps{Recorder: recorder})

	require.NoError(t, session.SelectOption(0))
	session.Advance() // last question: finishes

	correct, total := session.Finish()
	assert.Equal(t, 1, correct)
	assert.Equal(t, 1, total)

	correct2, total2 := session.Finish()
	assert.Equal(t, correct, correct2)
	assert.Equal(t, total, total2)

	require.Eventually(t, func() bool { return len(recorder.saved()) == 1 },
		time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	attempts := recorder.saved()
	require.Len(t, attempts, 1, "attempt must be persisted exactly once")
	assert.Equal(t, "quiz-1", attempts[0].QuizID)
	assert.Equal(t, 1, attempts[0].Score)
	assert.Equal(t, 100, attempts[0].Percentage)
}

func TestFinishWithoutQuizIDSkipsRecorder(t *testing.T) {
	recorder := &fakeRecorder{}
	quiz := sampleQuiz(mcq("q", []string{"a"}, "a"))
	quiz.ID = ""
	session := newTestSession(t, quiz, app.SessionDeps{Recorder: recorder})

	session.Finish()
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, recorder.saved())
}

func TestSkippedCodingNeverCountsAsCorrect(t *testing.T) {
	session := newTestSession(t, sampleQuiz(
		mcq("q1", []string{"a", "b"}, "a"),
		coding("write a loop", "10"),
		mcq("q3", []string{"a", "b"}, "b"),
		coding("write a function", "7"),
	), app.SessionDeps{})

	require.NoError(t, session.SelectOption(0))
	session.Advance()
	session.SkipCoding()
	assert.True(t, session.CurrentQuestion().IsAnswered)
	assert.False(t, session.CurrentQuestion().IsCorrect)
	session.Advance()
	require.NoError(t, session.SelectOption(1))
	session.Advance()
	session.Advance() // coding question: advance-eligible without answering, marks skipped

	assert.True(t, session.IsSubmitted())
	correct, total := session.Finish()
	assert.Equal(t, 2, correct, "only the MCQ answers count")
	assert.Equal(t, 4, total)

	incorrect := session.IncorrectQuestions()
	require.Len(t, incorrect, 2)
	assert.Equal(t, 2, incorrect[0].ID)
	assert.Equal(t, 4, incorrect[1].ID)
}

func TestCompleteCodingSuccessAutoAdvances(t *testing.T) {
	session := newTestSession(t, sampleQuiz(
		coding("sum 1 to n", "55"),
		mcq("q2", []string{"a"}, "a"),
	), app.SessionDeps{})

	session.CompleteCoding(0, true)
	assert.Equal(t, 1, session.CorrectCount())
	assert.Equal(t, 1, session.CurrentIndex())
}

func TestCompleteCodingFailureLeavesQuestionOpen(t *testing.T) {
	session := newTestSession(t, sampleQuiz(coding("sum 1 to n", "55")), app.SessionDeps{})

	session.CompleteCoding(0, false)
	q := session.CurrentQuestion()
	assert.False(t, q.IsAnswered, "failed run leaves the question open for retry or skip")
	assert.Equal(t, 0, session.CorrectCount())
}

func TestLateCodingSignalLosesToSubmission(t *testing.T) {
	session := newTestSession(t, sampleQuiz(coding("sum 1 to n", "55")), app.SessionDeps{})

	session.Finish()
	session.CompleteCoding(0, true)
	correct, _ := session.Finish()
	assert.Equal(t, 0, correct)
}

func TestSubmitCodeExecutorFlow(t *testing.T) {
	executor := &fakeExecutor{result: domain.CodeExecutionResult{Output: "55", Success: true}}
	session := newTestSession(t, sampleQuiz(
		coding("Write a program to sum numbers from 1 to n using a loop", "55"),
		mcq("q2", []string{"a"}, "a"),
	), app.SessionDeps{Executor: executor})

	res := session.SubmitCode(context.Background(), "for(int i=0;i<n;i++){sum+=i;} print(sum);")
	require.True(t, res.IsValid, res.Message)

	require.Eventually(t, func() bool { return session.CurrentIndex() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, session.CorrectCount())
	assert.Equal(t, 1, executor.callCount())
}

func TestSubmitCodeInvalidNeverExecutes(t *testing.T) {
	executor := &fakeExecutor{result: domain.CodeExecutionResult{Success: true}}
	session := newTestSession(t, sampleQuiz(
		coding("Write a program to sum numbers from 1 to n using a loop", "55"),
	), app.SessionDeps{Executor: executor})

	res := session.SubmitCode(context.Background(), "print(55)")
	assert.False(t, res.IsValid)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, executor.callCount())
	assert.False(t, session.CurrentQuestion().IsAnswered)
}

func TestRetakeIsDeterministic(t *testing.T) {
	recorder := &fakeRecorder{}
	quiz := sampleQuiz(
		mcq("q1", []string{"a", "b"}, "a"),
		coding("write a loop", "10"),
		mcq("q3", []string{"a", "b"}, "b"),
	)
	session := newTestSession(t, quiz, app.SessionDeps{Recorder: recorder})

	play := func() int {
		require.NoError(t, session.SelectOption(0))
		session.Advance()
		session.SkipCoding()
		session.Advance()
		require.NoError(t, session.SelectOption(1))
		session.Advance()
		correct, _ := session.Finish()
		return correct
	}

	first := play()
	assert.Equal(t, 2, first)

	session.Retake()
	assert.False(t, session.IsSubmitted())
	assert.Equal(t, 0, session.CurrentIndex())
	assert.Equal(t, 0, session.CorrectCount())
	assert.Equal(t, 3*time.Minute, session.RemainingTime())
	q := session.CurrentQuestion()
	assert.False(t, q.IsAnswered)
	assert.Equal(t, -1, q.SelectedOptionIndex)

	second := play()
	assert.Equal(t, first, second, "replaying identical answers must yield the same score")

	require.Eventually(t, func() bool { return len(recorder.saved()) == 2 },
		time.Second, 5*time.Millisecond)
}

func TestTimerExpiryForcesSubmission(t *testing.T) {
	session := newTestSession(t, sampleQuiz(
		mcq("q1", []string{"a", "b"}, "a"),
		mcq("q2", []string{"a", "b"}, "a"),
	), app.SessionDeps{TickInterval: time.Millisecond})

	require.NoError(t, session.SelectOption(0))

	// Two questions at one minute each is 120 logical seconds; at one
	// millisecond per tick the countdown drains almost immediately.
	require.Eventually(t, session.IsSubmitted, 5*time.Second, 10*time.Millisecond)

	correct, total := session.Finish()
	assert.Equal(t, 1, correct, "score freezes at whatever was accumulated")
	assert.Equal(t, 2, total)

	// Post-submission actions are no-ops.
	session.Advance()
	require.NoError(t, session.SelectOption(1))
	correct2, _ := session.Finish()
	assert.Equal(t, correct, correct2)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	session := newTestSession(t, sampleQuiz(
		mcq("q1", []string{"a", "b"}, "a"),
		mcq("q2", []string{"a", "b"}, "a"),
	), app.SessionDeps{})

	events, cancel := session.Subscribe()
	defer cancel()

	first := <-events
	assert.Equal(t, app.EventQuestionChanged, first.Type)
	assert.Equal(t, 0, first.QuestionIndex)

	require.NoError(t, session.SelectOption(0))
	ev := waitForEvent(t, events, app.EventAnswerRecorded)
	assert.True(t, ev.Correct)

	session.Advance()
	ev = waitForEvent(t, events, app.EventQuestionChanged)
	assert.Equal(t, 1, ev.QuestionIndex)

	require.NoError(t, session.SelectOption(0))
	session.Advance()
	ev = waitForEvent(t, events, app.EventCompleted)
	assert.Equal(t, 2, ev.CorrectCount)
	assert.Equal(t, 2, ev.TotalQuestions)
}

func waitForEvent(t *testing.T, events <-chan app.Event, want app.EventType) app.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestResultsSnapshot(t *testing.T) {
	session := newTestSession(t, sampleQuiz(
		mcq("2+2?", []string{"3", "4"}, "4"),
		coding("sum 1 to n", "55"),
	), app.SessionDeps{})

	require.NoError(t, session.SelectOption(0))
	session.Advance()
	session.SkipCoding()
	session.Advance()

	results := session.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "3", results[0].YourAnswer)
	assert.Equal(t, "4", results[0].CorrectAnswer)
	assert.False(t, results[0].IsCorrect)
	assert.Equal(t, "55", results[1].CorrectAnswer)
	assert.False(t, results[1].IsCorrect)
}

func TestCorrectCountBounds(t *testing.T) {
	session := newTestSession(t, sampleQuiz(
		mcq("q1", []string{"a", "b"}, "a"),
		mcq("q2", []string{"a", "b"}, "a"),
		mcq("q3", []string{"a", "b"}, "b"),
	), app.SessionDeps{})

	for i := 0; i < 3; i++ {
		assert.GreaterOrEqual(t, session.CorrectCount(), 0)
		assert.LessOrEqual(t, session.CorrectCount(), session.TotalQuestions())
		require.NoError(t, session.SelectOption(0))
		session.Advance()
	}
	correct, total := session.Finish()
	assert.Equal(t, 2, correct)
	assert.Equal(t, 3, total)
}

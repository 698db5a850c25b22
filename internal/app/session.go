package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"learnify-quiz-service/internal/domain"
	"learnify-quiz-service/internal/validator"
)

const (
	defaultQuizDuration  = 10 * time.Minute
	defaultTickInterval  = time.Second
	minQuestionTimeLimit = 1.0 // minutes
)

// SessionDeps carries the optional collaborators a session talks to.
type SessionDeps struct {
	Recorder AttemptRecorder // nil: completed passes are not persisted
	Executor CodeExecutor    // nil: coding questions rely on skip/manual judging
	// TickInterval is the wall-clock spacing of countdown ticks. Each tick
	// consumes one logical second of quiz time; tests shrink it to
	// fast-forward the timer. Defaults to one second.
	TickInterval time.Duration
	Clock        func() time.Time
}

// Session owns one pass through a quiz: a fixed ordered question list, a
// countdown timer, per-question answer state, and the submitted latch.
//
// All mutations are serialized behind one mutex; timer ticks and user
// operations both enter through it, so a timer expiry racing a user action
// resolves to whichever acquires the lock first and the loser becomes a
// guarded no-op.
type Session struct {
	quizID    string
	quizTitle string
	questions []*domain.QuizQuestion
	total     time.Duration

	recorder AttemptRecorder
	executor CodeExecutor
	tick     time.Duration
	now      func() time.Time

	mu           sync.Mutex
	currentIndex int
	correctCount int
	submitted    bool
	closed       bool
	remaining    time.Duration
	timerStop    chan struct{}
	timerGen     int
	subscribers  map[chan Event]struct{}
}

// NewSession builds a session over the quiz's questions and starts the
// countdown immediately. Fails fast on an empty question list.
func NewSession(quiz domain.Quiz, deps SessionDeps) (*Session, error) {
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrEmptyQuiz
	}

	questions := make([]*domain.QuizQuestion, len(quiz.Questions))
	for i := range quiz.Questions {
		q := quiz.Questions[i] // value copy; the session owns its own state
		q.ID = i + 1
		if q.Difficulty == "" {
			q.Difficulty = domain.DifficultyNormal
		}
		if q.TimeLimit <= 0 {
			q.TimeLimit = minQuestionTimeLimit
		}
		q.ResetAnswer()
		questions[i] = &q
	}

	tick := deps.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Session{
		quizID:      quiz.ID,
		quizTitle:   quiz.Title,
		questions:   questions,
		recorder:    deps.Recorder,
		executor:    deps.Executor,
		tick:        tick,
		now:         clock,
		subscribers: make(map[chan Event]struct{}),
	}
	s.total = s.computeTotalDuration()
	s.remaining = s.total
	s.mu.Lock()
	s.startTimerLocked()
	s.mu.Unlock()
	return s, nil
}

func (s *Session) computeTotalDuration() time.Duration {
	var total time.Duration
	for _, q := range s.questions {
		total += time.Duration(q.TimeLimit * float64(time.Minute))
	}
	if total == 0 {
		total = defaultQuizDuration
	}
	return total
}

// QuizID returns the quiz this session runs, possibly empty for
// pre-hydrated quizzes that were never persisted.
func (s *Session) QuizID() string { return s.quizID }

// Title returns the quiz title.
func (s *Session) Title() string { return s.quizTitle }

// TotalQuestions returns the fixed question count.
func (s *Session) TotalQuestions() int { return len(s.questions) }

// CurrentIndex returns the 0-based index of the question in play.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// CurrentQuestion returns a copy of the question at the current index.
func (s *Session) CurrentQuestion() domain.QuizQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.questions[s.currentIndex]
}

// CorrectCount returns the score accumulated so far.
func (s *Session) CorrectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correctCount
}

// IsSubmitted reports whether this pass has reached the terminal state.
func (s *Session) IsSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// RemainingTime returns the countdown's remaining duration.
func (s *Session) RemainingTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// SelectOption records an MCQ answer. The first answer is final: once a
// question is answered, further selections are ignored, matching a UI that
// disables the options after a pick. Selecting on a coding question or a
// submitted session is a guarded no-op. An out-of-range index is the one
// caller bug reported as an error.
func (s *Session) SelectOption(optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return nil
	}
	q := s.questions[s.currentIndex]
	if q.IsCodingQuestion() || q.IsAnswered {
		return nil
	}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return domain.ErrInvalidOptionIndex
	}

	q.SelectedOptionIndex = optionIndex
	q.IsAnswered = true
	q.IsCorrect = q.Options[optionIndex] == q.CorrectAnswer
	if q.IsCorrect {
		s.correctCount++
	}
	s.broadcastLocked(Event{
		Type:          EventAnswerRecorded,
		QuestionIndex: s.currentIndex,
		Correct:       q.IsCorrect,
		CorrectCount:  s.correctCount,
	})
	return nil
}

// SubmitCode validates a coding submission and, when it passes and an
// executor is configured, hands it off for remote execution. The handoff is
// asynchronous; its completion re-enters the session through CompleteCoding
// and loses to the quiz timer if that fires first. With no executor the
// verdict alone is returned and completion comes from CompleteCoding
// (manual judging) or SkipCoding.
func (s *Session) SubmitCode(ctx context.Context, code string) validator.Result {
	s.mu.Lock()

	q := s.questions[s.currentIndex]
	if s.submitted || !q.IsCodingQuestion() || q.IsAnswered {
		s.mu.Unlock()
		return validator.Validate(code, q.CodingPrompt)
	}
	q.SubmittedCode = code
	res := validator.Validate(code, q.CodingPrompt)
	if !res.IsValid || s.executor == nil {
		s.mu.Unlock()
		return res
	}

	index := s.currentIndex
	req := domain.CodeExecution{
		Code:           code,
		Language:       q.Language,
		ExpectedOutput: q.ExpectedOutput,
	}
	s.mu.Unlock()

	go func() {
		result, err := s.executor.Execute(ctx, req)
		if err != nil {
			log.Printf("code execution failed for question %d: %v", index+1, err)
			return
		}
		s.CompleteCoding(index, result.Success)
	}()
	return res
}

// CompleteCoding applies the outcome of a coding exercise. Success marks the
// question correct and auto-advances; failure leaves it unanswered so the
// user can retry or skip. Late signals are dropped: after submission, after
// navigation away from the question, or after the question was already
// settled.
func (s *Session) CompleteCoding(questionIndex int, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted || questionIndex != s.currentIndex {
		return
	}
	q := s.questions[s.currentIndex]
	if !q.IsCodingQuestion() || q.IsAnswered {
		return
	}
	if !success {
		return
	}

	q.IsAnswered = true
	q.IsCorrect = true
	s.correctCount++
	s.broadcastLocked(Event{
		Type:          EventAnswerRecorded,
		QuestionIndex: s.currentIndex,
		Correct:       true,
		CorrectCount:  s.correctCount,
	})
	s.advanceLocked()
}

// SkipCoding marks the current coding question as skipped. A skip scores as
// incorrect and never increments the correct count.
func (s *Session) SkipCoding() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return
	}
	q := s.questions[s.currentIndex]
	if !q.IsCodingQuestion() {
		return
	}
	q.IsAnswered = true
	q.IsCorrect = false
	s.broadcastLocked(Event{
		Type:          EventAnswerRecorded,
		QuestionIndex: s.currentIndex,
		Correct:       false,
		CorrectCount:  s.correctCount,
	})
}

// Advance moves to the next question, or finishes the quiz from the last
// one. Non-coding questions must be answered first (unanswered: guarded
// no-op). Coding questions are always advance-eligible; advancing past an
// unsettled one marks it skipped.
func (s *Session) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return
	}
	q := s.questions[s.currentIndex]
	if q.IsCodingQuestion() {
		if !q.IsCorrect {
			q.IsAnswered = true
			q.IsCorrect = false
		}
	} else if !q.IsAnswered {
		return
	}
	s.advanceLocked()
}

func (s *Session) advanceLocked() {
	if s.currentIndex == len(s.questions)-1 {
		s.finishLocked()
		return
	}
	s.currentIndex++
	s.broadcastLocked(Event{
		Type:           EventQuestionChanged,
		QuestionIndex:  s.currentIndex,
		TotalQuestions: len(s.questions),
	})
}

// Finish forces submission and returns the final (correct, total) tuple.
// Idempotent: repeated calls return the same tuple and the attempt is
// persisted at most once.
func (s *Session) Finish() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
	return s.correctCount, len(s.questions)
}

func (s *Session) finishLocked() {
	if s.submitted {
		return
	}
	s.submitted = true
	s.stopTimerLocked()

	s.broadcastLocked(Event{
		Type:           EventCompleted,
		CorrectCount:   s.correctCount,
		TotalQuestions: len(s.questions),
	})

	if s.quizID == "" {
		log.Printf("quiz has no id; skipping history write")
		return
	}
	if s.recorder == nil {
		return
	}

	attempt := domain.QuizAttempt{
		AttemptID:   s.quizID + "_" + uuid.NewString(),
		QuizID:      s.quizID,
		QuizTitle:   s.quizTitle,
		Score:       s.correctCount,
		Total:       len(s.questions),
		Percentage:  s.correctCount * 100 / len(s.questions),
		AttemptedAt: s.now(),
	}
	// Fire-and-forget: persistence failure must never block or roll back a
	// finished quiz.
	go func() {
		if err := s.recorder.SaveAttempt(context.Background(), attempt); err != nil {
			log.Printf("failed to save quiz attempt %s: %v", attempt.AttemptID, err)
		}
	}()
}

// Retake resets every question and the session counters, then restarts the
// countdown from the full originally-computed duration.
func (s *Session) Retake() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	for _, q := range s.questions {
		q.ResetAnswer()
	}
	s.correctCount = 0
	s.currentIndex = 0
	s.submitted = false
	s.remaining = s.computeTotalDuration()
	s.stopTimerLocked()
	s.startTimerLocked()
	s.broadcastLocked(Event{
		Type:           EventQuestionChanged,
		QuestionIndex:  0,
		TotalQuestions: len(s.questions),
	})
}

// IncorrectQuestions snapshots the questions answered incorrectly (skipped
// coding questions included), preserving original order. Drives the
// remediation/recommendation flow.
func (s *Session) IncorrectQuestions() []domain.QuizQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	var incorrect []domain.QuizQuestion
	for _, q := range s.questions {
		if q.IsAnswered && !q.IsCorrect {
			incorrect = append(incorrect, *q)
		}
	}
	return incorrect
}

// Results snapshots every question's outcome for the feedback screen.
func (s *Session) Results() []domain.QuestionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.QuestionResult, 0, len(s.questions))
	for _, q := range s.questions {
		r := domain.QuestionResult{
			QuestionNumber: q.ID,
			RelatedTopicID: q.RelatedTopicID,
			QuestionText:   q.Text,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      q.IsAnswered && q.IsCorrect,
		}
		if q.IsCodingQuestion() {
			r.CorrectAnswer = q.ExpectedOutput
			r.YourAnswer = q.SubmittedCode
		} else if q.SelectedOptionIndex >= 0 && q.SelectedOptionIndex < len(q.Options) {
			r.YourAnswer = q.Options[q.SelectedOptionIndex]
		}
		results = append(results, r)
	}
	return results
}

// Subscribe returns a channel of state-change events plus a cancel func.
// The current question is delivered first so late subscribers can render.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := Event{
		Type:           EventQuestionChanged,
		QuestionIndex:  s.currentIndex,
		TotalQuestions: len(s.questions),
	}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close stops the timer and drops all subscribers. No further ticks are
// delivered after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Event]struct{})
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest update rather than block on a slow subscriber.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (s *Session) startTimerLocked() {
	stop := make(chan struct{})
	s.timerStop = stop
	s.timerGen++
	go s.runTimer(stop, s.timerGen)
}

func (s *Session) stopTimerLocked() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
}

// runTimer delivers one logical second of countdown per tick. Reaching zero
// forces submission exactly once; stopping the timer has no other side
// effects.
func (s *Session) runTimer(stop chan struct{}, gen int) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.tickOnce(gen) {
				return
			}
		}
	}
}

func (s *Session) tickOnce(gen int) (done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A stale goroutine from before a retake must not tick the new pass.
	if gen != s.timerGen || s.submitted || s.closed {
		return true
	}
	s.remaining -= time.Second
	if s.remaining < 0 {
		s.remaining = 0
	}
	s.broadcastLocked(Event{
		Type:            EventTimeTick,
		RemainingMillis: s.remaining.Milliseconds(),
	})
	if s.remaining == 0 {
		s.finishLocked()
		return true
	}
	return false
}

package app

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizdeck-service/internal/domain"
)

// SessionState enumerates the attempt lifecycle.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateLoading    SessionState = "loading"
	StateReady      SessionState = "ready"
	StateInProgress SessionState = "in_progress"
	StatePaused     SessionState = "paused"
	StateCompleted  SessionState = "completed"
	StateReview     SessionState = "review"
)

func (s SessionState) terminal() bool {
	return s == StateCompleted || s == StateReview
}

// SessionSnapshot is the read-only view handed to subscribers after every
// mutation. All fields are derived from session state under the lock.
type SessionSnapshot struct {
	SessionID       string       `json:"sessionId"`
	UserID          string       `json:"userId"`
	Status          SessionState `json:"status"`
	QuizID          string       `json:"quizId,omitempty"`
	CurrentIndex    int          `json:"currentIndex"`
	TotalQuestions  int          `json:"totalQuestions"`
	AnsweredCount   int          `json:"answeredCount"`
	CorrectCount    int          `json:"correctCount"`
	Score           int          `json:"score"`
	Elapsed         int          `json:"elapsedSeconds"`
	FormattedTime   string       `json:"formattedTime"`
	Progress        float64      `json:"progressPercent"`
	IsFirstQuestion bool         `json:"isFirstQuestion"`
	IsLastQuestion  bool         `json:"isLastQuestion"`
	Error           string       `json:"error,omitempty"`
}

// Session is the per-attempt state machine. All mutation goes through its
// mutex, which serializes user commands against timer ticks.
type Session struct {
	id     string
	userID string
	now    func() time.Time

	mu           sync.RWMutex
	status       SessionState
	prevStatus   SessionState
	quiz         domain.Quiz
	questions    []domain.Question
	index        int
	answers      []domain.AnswerRecord
	answerIdx    map[string]int
	attemptID    string
	startedAt    time.Time
	elapsed      int
	lastAnswerAt int
	correctCount int
	score        int
	lastErr      error
	results      *domain.AttemptSnapshot

	tickInterval time.Duration
	tickStop     chan struct{}
	subscribers  map[chan SessionSnapshot]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id, userID string) *Session {
	return newSessionWithClock(id, userID, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id, userID string, now func() time.Time) *Session {
	return newSessionWithClock(id, userID, now)
}

func newSessionWithClock(id, userID string, now func() time.Time) *Session {
	return &Session{
		id:           id,
		userID:       userID,
		now:          now,
		status:       StateIdle,
		answerIdx:    make(map[string]int),
		tickInterval: time.Second,
		subscribers:  make(map[chan SessionSnapshot]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// UserID returns the identity the attempt is tagged with.
func (s *Session) UserID() string { return s.userID }

// beginLoad marks the session loading. The prior status is kept so a failed
// load can revert instead of forcing the session back to idle.
func (s *Session) beginLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StateLoading {
		return
	}
	s.prevStatus = s.status
	s.status = StateLoading
	s.lastErr = nil
	s.broadcastLocked()
}

// SetQuiz installs loaded content and moves the session to ready. Exported
// for infrastructure layers and tests that seed sessions without a loader.
func (s *Session) SetQuiz(quiz domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quiz = quiz
	s.questions = quiz.Questions
	s.status = StateReady
	s.index = 0
	s.clearAnswersLocked()
	s.lastErr = nil
	s.broadcastLocked()
}

// failLoad records the load error and reverts to the pre-load status.
func (s *Session) failLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	if s.status == StateLoading {
		s.status = s.prevStatus
	}
	s.broadcastLocked()
}

// Start moves a ready session into progress and begins a fresh attempt.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 && s.quiz.ID == "" {
		return domain.ErrNoQuizLoaded
	}
	if s.status == StateInProgress {
		return nil
	}
	if s.status.terminal() {
		return domain.ErrSessionCompleted
	}
	s.status = StateInProgress
	s.index = 0
	s.clearAnswersLocked()
	s.attemptID = uuid.NewString()
	s.startedAt = s.now()
	s.elapsed = 0
	s.lastAnswerAt = 0
	s.results = nil
	s.startTickerLocked()
	s.broadcastLocked()
	return nil
}

// Answer records (or overwrites) the answer for one question and recomputes
// the derived score over the full answer set. Correctness is decided here,
// once. Re-answering is permitted; the answer log keeps a single record per
// question, reflecting the most recent call.
func (s *Session) Answer(questionID string, selected int) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.terminal() {
		return domain.AnswerRecord{}, domain.ErrSessionCompleted
	}

	var question *domain.Question
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			question = &s.questions[i]
			break
		}
	}
	if question == nil {
		return domain.AnswerRecord{}, domain.ErrQuestionNotFound
	}

	record := domain.AnswerRecord{
		QuestionID: questionID,
		Selected:   selected,
		Correct:    selected == question.Correct,
		TimeSpent:  s.elapsed - s.lastAnswerAt,
		AnsweredAt: s.now(),
	}
	s.lastAnswerAt = s.elapsed

	if at, ok := s.answerIdx[questionID]; ok {
		s.answers[at] = record
	} else {
		s.answerIdx[questionID] = len(s.answers)
		s.answers = append(s.answers, record)
	}

	s.recomputeScoreLocked()
	s.broadcastLocked()
	return record, nil
}

// Next advances the cursor, clamped to the last question.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.terminal() {
		return
	}
	if s.index < len(s.questions)-1 {
		s.index++
		s.broadcastLocked()
	}
}

// Previous moves the cursor back, clamped to zero.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.terminal() {
		return
	}
	if s.index > 0 {
		s.index--
		s.broadcastLocked()
	}
}

// GoToQuestion jumps to an index. Out-of-range indices are ignored.
func (s *Session) GoToQuestion(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.terminal() {
		return
	}
	if index < 0 || index >= len(s.questions) {
		return
	}
	if index != s.index {
		s.index = index
		s.broadcastLocked()
	}
}

// Pause suspends the tick source without touching answer state. Pausing a
// session that is not in progress is a no-op.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StateInProgress {
		return
	}
	s.status = StatePaused
	s.stopTickerLocked()
	s.broadcastLocked()
}

// Resume restarts the tick source. Resuming while already running is a no-op.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatePaused {
		return
	}
	s.status = StateInProgress
	s.startTickerLocked()
	s.broadcastLocked()
}

// Submit freezes the attempt from any non-terminal state and returns the
// snapshot handed to the persistence sink.
func (s *Session) Submit() (domain.AttemptSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.terminal() {
		return domain.AttemptSnapshot{}, domain.ErrSessionCompleted
	}
	if s.quiz.ID == "" {
		return domain.AttemptSnapshot{}, domain.ErrNoQuizLoaded
	}
	s.status = StateCompleted
	s.stopTickerLocked()

	answers := make([]domain.AnswerRecord, len(s.answers))
	copy(answers, s.answers)
	snapshot := domain.AttemptSnapshot{
		ID:             s.attemptID,
		UserID:         s.userID,
		QuizID:         s.quiz.ID,
		Score:          s.score,
		CorrectCount:   s.correctCount,
		TotalQuestions: len(s.questions),
		Answers:        answers,
		StartedAt:      s.startedAt,
		CompletedAt:    s.now(),
		TimeSpent:      s.elapsed,
	}
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	s.results = &snapshot
	s.broadcastLocked()
	return snapshot, nil
}

// EnterReview moves a completed session into the read-only review state and
// returns the frozen results. Calling it again while in review is a no-op.
func (s *Session) EnterReview() (domain.AttemptSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		return domain.AttemptSnapshot{}, fmt.Errorf("no results available: %w", domain.ErrSessionNotFound)
	}
	s.status = StateReview
	s.broadcastLocked()
	return *s.results, nil
}

// Reset clears the attempt. With a quiz loaded the session returns to ready;
// otherwise it falls back to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
	if s.quiz.ID != "" {
		s.status = StateReady
	} else {
		s.status = StateIdle
	}
	s.index = 0
	s.clearAnswersLocked()
	s.elapsed = 0
	s.lastAnswerAt = 0
	s.attemptID = ""
	s.results = nil
	s.lastErr = nil
	s.broadcastLocked()
}

// Tick advances elapsed time by exactly one second. It only applies while
// the session is in progress, so a tick queued behind pause/submit/reset is
// discarded rather than leaking into the frozen attempt.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StateInProgress {
		return
	}
	s.elapsed++
	s.broadcastLocked()
}

// setSaveError surfaces a persistence failure on the completed session.
// Locally computed results stay authoritative for display.
func (s *Session) setSaveError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.broadcastLocked()
}

// Close destroys the session: the tick source is cancelled, the state falls
// back to idle and all subscribers are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
	s.status = StateIdle
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Err returns the last recorded load/save error, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Status returns the current lifecycle state.
func (s *Session) Status() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Quiz returns the loaded quiz content.
func (s *Session) Quiz() domain.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quiz
}

// CurrentQuestion returns the question under the cursor.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index < 0 || s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// CurrentIndex returns the cursor position.
func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Score returns the derived percentage score.
func (s *Session) Score() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.score
}

// CorrectCount returns how many recorded answers are correct.
func (s *Session) CorrectCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.correctCount
}

// Elapsed returns accumulated in-progress seconds.
func (s *Session) Elapsed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

// FormattedTime renders elapsed time as MM:SS.
func (s *Session) FormattedTime() string {
	return FormatElapsed(s.Elapsed())
}

// RemainingTime returns total minus elapsed, floored at zero.
func (s *Session) RemainingTime(totalSeconds int) int {
	remaining := totalSeconds - s.Elapsed()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsAnswered reports whether a record exists for the question.
func (s *Session) IsAnswered(questionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.answerIdx[questionID]
	return ok
}

// AnswerFor returns the recorded answer for a question.
func (s *Session) AnswerFor(questionID string) (domain.AnswerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.answerIdx[questionID]
	if !ok {
		return domain.AnswerRecord{}, false
	}
	return s.answers[at], true
}

// Answers returns a copy of the answer log in answer order.
func (s *Session) Answers() []domain.AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AnswerRecord, len(s.answers))
	copy(out, s.answers)
	return out
}

// Results returns the frozen attempt snapshot after submit.
func (s *Session) Results() (domain.AttemptSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.results == nil {
		return domain.AttemptSnapshot{}, false
	}
	return *s.results, true
}

// Snapshot returns the current derived view.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every mutation.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan SessionSnapshot, func()) {
	ch := make(chan SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
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

func (s *Session) clearAnswersLocked() {
	s.answers = nil
	s.answerIdx = make(map[string]int)
	s.correctCount = 0
	s.score = 0
}

func (s *Session) recomputeScoreLocked() {
	correct := 0
	for _, record := range s.answers {
		if record.Correct {
			correct++
		}
	}
	s.correctCount = correct
	s.score = computeScore(correct, len(s.questions))
}

func (s *Session) broadcastLocked() {
	snapshot := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Drop the oldest pending snapshot so a slow consumer never
			// blocks the state machine.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func (s *Session) snapshotLocked() SessionSnapshot {
	total := len(s.questions)
	snapshot := SessionSnapshot{
		SessionID:       s.id,
		UserID:          s.userID,
		Status:          s.status,
		QuizID:          s.quiz.ID,
		CurrentIndex:    s.index,
		TotalQuestions:  total,
		AnsweredCount:   len(s.answers),
		CorrectCount:    s.correctCount,
		Score:           s.score,
		Elapsed:         s.elapsed,
		FormattedTime:   FormatElapsed(s.elapsed),
		IsFirstQuestion: s.index == 0,
		IsLastQuestion:  total > 0 && s.index == total-1,
	}
	if total > 0 {
		snapshot.Progress = float64(s.index+1) / float64(total) * 100
	}
	if s.lastErr != nil {
		snapshot.Error = s.lastErr.Error()
	}
	return snapshot
}

// computeScore derives the percentage score, guarding the zero-question case.
func computeScore(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// FormatElapsed renders a non-negative second count as zero-padded MM:SS.
// The minutes field grows past two digits rather than wrapping.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

package app

import (
	"context"

	"go.uber.org/zap"

	"quizdeck-service/internal/domain"
)

// SessionRepository abstracts how attempt sessions are stored (in-memory,
// Redis-backed registry, etc).
type SessionRepository interface {
	GetOrCreate(sessionID, userID string) *Session
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizCatalog lists the full quiz collection for the filtering projection.
type QuizCatalog interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// CatalogDirectory serves the read-only reference records (universities,
// faculties, subjects) shown alongside the quiz listing.
type CatalogDirectory interface {
	Universities(ctx context.Context) ([]domain.University, error)
	Faculties(ctx context.Context, universityID string) ([]domain.Faculty, error)
	Subjects(ctx context.Context) ([]domain.Subject, error)
}

// AttemptStore is the persistence sink for completed attempts. Saving is
// best-effort from the session's point of view: a failure surfaces as a
// session error while local results stay displayable.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, attempt domain.AttemptSnapshot) error
	ListAttempts(ctx context.Context, userID string) ([]domain.AttemptSnapshot, error)
}

// LeaderboardStore ranks completed attempts per quiz, best score first and
// faster completions breaking ties.
type LeaderboardStore interface {
	RecordAttempt(ctx context.Context, attempt domain.AttemptSnapshot) error
	Top(ctx context.Context, quizID string, limit int) ([]domain.LeaderboardEntry, error)
}

// QuizService contains the attempt use cases.
type QuizService struct {
	sessions    SessionRepository
	quizzes     QuizRepository
	catalog     QuizCatalog
	attempts    AttemptStore
	leaderboard LeaderboardStore
	log         *zap.Logger
}

func NewQuizService(sessions SessionRepository, quizzes QuizRepository, catalog QuizCatalog, attempts AttemptStore, leaderboard LeaderboardStore, log *zap.Logger) *QuizService {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizService{
		sessions:    sessions,
		quizzes:     quizzes,
		catalog:     catalog,
		attempts:    attempts,
		leaderboard: leaderboard,
		log:         log,
	}
}

// LoadQuiz fetches quiz content into a session and readies it for a run.
// Load is single-shot: on failure the error is recorded on the session, the
// session keeps its prior status, and the caller retries by calling
// LoadQuiz again.
func (s *QuizService) LoadQuiz(ctx context.Context, sessionID, userID, quizID string) (*Session, error) {
	session := s.sessions.GetOrCreate(sessionID, userID)
	session.beginLoad()

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		session.failLoad(err)
		s.log.Warn("quiz load failed", zap.String("quizId", quizID), zap.Error(err))
		return session, err
	}

	session.SetQuiz(quiz)
	s.log.Debug("quiz loaded",
		zap.String("sessionId", sessionID),
		zap.String("quizId", quizID),
		zap.Int("questions", len(quiz.Questions)))
	return session, nil
}

// Start begins the attempt on a loaded session.
func (s *QuizService) Start(sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Start()
}

// Answer records an answer for the session's current attempt.
func (s *QuizService) Answer(sessionID, questionID string, selected int) (domain.AnswerRecord, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerRecord{}, domain.ErrSessionNotFound
	}
	return session.Answer(questionID, selected)
}

// Submit freezes the attempt, persists it and feeds the leaderboard. A
// persistence failure is recorded on the session; the returned snapshot is
// still the authoritative local result.
func (s *QuizService) Submit(ctx context.Context, sessionID string) (domain.AttemptSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AttemptSnapshot{}, domain.ErrSessionNotFound
	}

	snapshot, err := session.Submit()
	if err != nil {
		return domain.AttemptSnapshot{}, err
	}

	if err := s.attempts.SaveAttempt(ctx, snapshot); err != nil {
		session.setSaveError(err)
		s.log.Warn("attempt save failed",
			zap.String("attemptId", snapshot.ID),
			zap.String("quizId", snapshot.QuizID),
			zap.Error(err))
		return snapshot, nil
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.RecordAttempt(ctx, snapshot); err != nil {
			s.log.Warn("leaderboard update failed", zap.String("quizId", snapshot.QuizID), zap.Error(err))
		}
	}

	s.log.Info("attempt completed",
		zap.String("attemptId", snapshot.ID),
		zap.String("quizId", snapshot.QuizID),
		zap.Int("score", snapshot.Score))
	return snapshot, nil
}

// Results transitions a completed session into review and returns the
// frozen snapshot.
func (s *QuizService) Results(sessionID string) (domain.AttemptSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AttemptSnapshot{}, domain.ErrSessionNotFound
	}
	return session.EnterReview()
}

// Session exposes a session for command dispatch (navigation, pause/resume,
// reset) and derived getters.
func (s *QuizService) Session(sessionID string) (*Session, bool) {
	return s.sessions.Get(sessionID)
}

// CloseSession cancels the session's tick source, drops subscribers and
// removes it from the registry. Used when the client goes away.
func (s *QuizService) CloseSession(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
}

// SearchQuizzes lists the catalog through the filtering projection.
func (s *QuizService) SearchQuizzes(ctx context.Context, criteria domain.FilterCriteria, query string) ([]domain.Quiz, error) {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	return FilterQuizzes(quizzes, criteria, query), nil
}

// Attempts returns a user's attempt history with aggregate stats.
func (s *QuizService) Attempts(ctx context.Context, userID string) ([]domain.AttemptSnapshot, domain.AttemptStats, error) {
	attempts, err := s.attempts.ListAttempts(ctx, userID)
	if err != nil {
		return nil, domain.AttemptStats{}, err
	}
	return attempts, ComputeStats(attempts), nil
}

// Leaderboard returns the top completed attempts for a quiz.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string, limit int) ([]domain.LeaderboardEntry, error) {
	if s.leaderboard == nil {
		return nil, nil
	}
	return s.leaderboard.Top(ctx, quizID, limit)
}

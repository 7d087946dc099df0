package memory

import (
	"context"
	"sort"
	"sync"

	"quizdeck-service/internal/domain"
)

// AttemptStore keeps completed attempts per user, newest first.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string][]domain.AttemptSnapshot
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string][]domain.AttemptSnapshot)}
}

func (s *AttemptStore) SaveAttempt(_ context.Context, attempt domain.AttemptSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.UserID] = append(s.attempts[attempt.UserID], attempt)
	return nil
}

func (s *AttemptStore) ListAttempts(_ context.Context, userID string) ([]domain.AttemptSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.attempts[userID]
	out := make([]domain.AttemptSnapshot, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}

// Leaderboard ranks one entry per user per quiz: best score wins, faster
// completion breaks ties.
type Leaderboard struct {
	mu      sync.RWMutex
	entries map[string]map[string]domain.LeaderboardEntry
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{entries: make(map[string]map[string]domain.LeaderboardEntry)}
}

func (l *Leaderboard) RecordAttempt(_ context.Context, attempt domain.AttemptSnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	perQuiz, ok := l.entries[attempt.QuizID]
	if !ok {
		perQuiz = make(map[string]domain.LeaderboardEntry)
		l.entries[attempt.QuizID] = perQuiz
	}
	entry := domain.LeaderboardEntry{
		UserID:      attempt.UserID,
		Score:       attempt.Score,
		TimeSpent:   attempt.TimeSpent,
		CompletedAt: attempt.CompletedAt,
	}
	if existing, ok := perQuiz[attempt.UserID]; ok && !betterEntry(entry, existing) {
		return nil
	}
	perQuiz[attempt.UserID] = entry
	return nil
}

func (l *Leaderboard) Top(_ context.Context, quizID string, limit int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	perQuiz := l.entries[quizID]
	out := make([]domain.LeaderboardEntry, 0, len(perQuiz))
	for _, entry := range perQuiz {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return betterEntry(out[i], out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func betterEntry(a, b domain.LeaderboardEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TimeSpent != b.TimeSpent {
		return a.TimeSpent < b.TimeSpent
	}
	return a.UserID < b.UserID
}

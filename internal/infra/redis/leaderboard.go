package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"quizdeck-service/internal/domain"
)

// Leaderboard keeps one ranked entry per user per quiz in a sorted set:
// ZADD GT quiz:{quizID}:leaderboard {rank} {userID}
// HSET    quiz:{quizID}:lbentries   {userID} {json}
// The rank packs score (dominant) and time spent (tie-break, faster wins)
// into a single float so Redis orders entries the same way the projection
// contract requires.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (l *Leaderboard) RecordAttempt(ctx context.Context, attempt domain.AttemptSnapshot) error {
	entry := domain.LeaderboardEntry{
		UserID:      attempt.UserID,
		Score:       attempt.Score,
		TimeSpent:   attempt.TimeSpent,
		CompletedAt: attempt.CompletedAt,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	rank := packRank(attempt.Score, attempt.TimeSpent)
	current, err := l.client.ZScore(ctx, l.rankKey(attempt.QuizID), attempt.UserID).Result()
	if err == nil && current >= rank {
		// an equal-or-better attempt is already ranked
		return nil
	}

	pipe := l.client.Pipeline()
	pipe.ZAddGT(ctx, l.rankKey(attempt.QuizID), redis.Z{Score: rank, Member: attempt.UserID})
	pipe.HSet(ctx, l.entriesKey(attempt.QuizID), attempt.UserID, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (l *Leaderboard) Top(ctx context.Context, quizID string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	userIDs, err := l.client.ZRevRange(ctx, l.rankKey(quizID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard range: %w", err)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	raws, err := l.client.HMGet(ctx, l.entriesKey(quizID), userIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard entries: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(raws))
	for _, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var entry domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(str), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	// ZREVRANGE breaks exact rank ties by descending member; re-sort so
	// equal attempts order by ascending user ID like the in-memory board.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].TimeSpent != entries[j].TimeSpent {
			return entries[i].TimeSpent < entries[j].TimeSpent
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries, nil
}

// packRank orders by score descending then time ascending. Scores are
// 0..100 and attempt durations are far below the 1e6-second packing unit.
func packRank(score, timeSpent int) float64 {
	return float64(score)*1_000_000 - float64(timeSpent)
}

func (l *Leaderboard) rankKey(quizID string) string {
	return "quiz:" + quizID + ":leaderboard"
}

func (l *Leaderboard) entriesKey(quizID string) string {
	return "quiz:" + quizID + ":lbentries"
}

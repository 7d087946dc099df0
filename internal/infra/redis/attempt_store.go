package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quizdeck-service/internal/domain"
)

// AttemptStore persists completed attempts as a JSON list per user:
// LPUSH attempts:{userID} {json}
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) SaveAttempt(ctx context.Context, attempt domain.AttemptSnapshot) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.client.LPush(ctx, s.key(attempt.UserID), raw).Err(); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) ListAttempts(ctx context.Context, userID string) ([]domain.AttemptSnapshot, error) {
	raws, err := s.client.LRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	attempts := make([]domain.AttemptSnapshot, 0, len(raws))
	for _, raw := range raws {
		var attempt domain.AttemptSnapshot
		if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
			continue
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

func (s *AttemptStore) key(userID string) string {
	return "attempts:" + userID
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizdeck-service/internal/domain"
)

// TokenStore keeps the issued token per user with a TTL:
// SET token:{userID} {token} EX ttl
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

func (s *TokenStore) Get(ctx context.Context, userID string) (string, error) {
	token, err := s.client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

func (s *TokenStore) Set(ctx context.Context, userID, token string) error {
	return s.client.Set(ctx, s.key(userID), token, s.ttl).Err()
}

func (s *TokenStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

func (s *TokenStore) key(userID string) string {
	return "token:" + userID
}

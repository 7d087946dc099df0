package memory

import (
	"context"
	"sync"

	"quizdeck-service/internal/domain"
)

// TokenStore is an in-memory implementation of auth.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]string)}
}

func (s *TokenStore) Get(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[userID]
	if !ok {
		return "", domain.ErrTokenNotFound
	}
	return token, nil
}

func (s *TokenStore) Set(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
	return nil
}

func (s *TokenStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}

// UserDirectory is an in-memory implementation of auth.UserDirectory.
type UserDirectory struct {
	mu     sync.RWMutex
	byMail map[string]directoryEntry
}

type directoryEntry struct {
	user domain.User
	hash string
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{byMail: make(map[string]directoryEntry)}
}

func (d *UserDirectory) FindByEmail(_ context.Context, email string) (domain.User, string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.byMail[email]
	if !ok {
		return domain.User{}, "", domain.ErrUserNotFound
	}
	return entry.user, entry.hash, nil
}

func (d *UserDirectory) Create(_ context.Context, user domain.User, passwordHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byMail[user.Email] = directoryEntry{user: user, hash: passwordHash}
	return nil
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quizdeck-service/internal/domain"
)

// TokenStore keeps the issued token per user so a client can resume its
// identity across reconnects. Swappable for any key-value backend.
type TokenStore interface {
	Get(ctx context.Context, userID string) (string, error)
	Set(ctx context.Context, userID, token string) error
	Clear(ctx context.Context, userID string) error
}

// UserDirectory resolves users and their password hashes.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (domain.User, string, error)
	Create(ctx context.Context, user domain.User, passwordHash string) error
}

// Service wires login/register against the directory and token store.
type Service struct {
	users   UserDirectory
	manager *Manager
	tokens  TokenStore
}

func NewService(users UserDirectory, manager *Manager, tokens TokenStore) *Service {
	return &Service{users: users, manager: manager, tokens: tokens}
}

// Login checks credentials and returns a fresh token. The token is stored
// best-effort; a store failure does not fail the login.
func (s *Service) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, hash, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	token, err := s.manager.Issue(user)
	if err != nil {
		return "", domain.User{}, err
	}
	_ = s.tokens.Set(ctx, user.ID, token)
	return token, user, nil
}

// Register creates the user and logs it in.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (string, domain.User, error) {
	if _, _, err := s.users.FindByEmail(ctx, email); err == nil {
		return "", domain.User{}, fmt.Errorf("email already registered")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Role:        "student",
	}
	if err := s.users.Create(ctx, user, string(hash)); err != nil {
		return "", domain.User{}, err
	}
	return s.Login(ctx, email, password)
}

// Logout drops the stored token.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.tokens.Clear(ctx, userID)
}

// Identify verifies a raw token and returns the embedded user.
func (s *Service) Identify(token string) (domain.User, error) {
	claims, err := s.manager.Verify(token)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:          claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
	}, nil
}

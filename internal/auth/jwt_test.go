package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quizdeck-service/internal/auth"
	"quizdeck-service/internal/domain"
	"quizdeck-service/internal/infra/memory"
)

const testSecret = "a-long-and-sufficiently-random-test-secret"

func TestIssueAndVerify(t *testing.T) {
	manager := auth.NewManager(testSecret, 5*time.Minute)

	token, err := manager.Issue(domain.User{ID: "u1", Email: "u1@example.edu", DisplayName: "Alice", Role: "student"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "student" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	issuer := auth.NewManagerWithClock(testSecret, time.Minute, func() time.Time { return issuedAt })

	token, err := issuer.Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier := auth.NewManager(testSecret, time.Minute)
	if _, err := verifier.Verify(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	manager := auth.NewManager(testSecret, time.Minute)
	token, err := manager.Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := auth.NewManager("a-different-secret-entirely", time.Minute)
	if _, err := other.Verify(token); err == nil {
		t.Fatalf("expected signature verification failure")
	}
}

func TestLoginRegisterFlow(t *testing.T) {
	ctx := context.Background()
	service := auth.NewService(memory.NewUserDirectory(), auth.NewManager(testSecret, time.Minute), memory.NewTokenStore())

	token, user, err := service.Register(ctx, "new@example.edu", "s3cret", "Newbie")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" || user.Email != "new@example.edu" {
		t.Fatalf("unexpected register result token=%q user=%+v", token, user)
	}

	// Duplicate registration is rejected.
	if _, _, err := service.Register(ctx, "new@example.edu", "other", "Dup"); err == nil {
		t.Fatalf("expected duplicate email rejection")
	}

	token, _, err = service.Login(ctx, "new@example.edu", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	identified, err := service.Identify(token)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if identified.ID != user.ID {
		t.Fatalf("expected same user, got %+v", identified)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ctx := context.Background()
	service := auth.NewService(memory.NewUserDirectory(), auth.NewManager(testSecret, time.Minute), memory.NewTokenStore())

	if _, _, err := service.Register(ctx, "u@example.edu", "right", "U"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := service.Login(ctx, "u@example.edu", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := service.Login(ctx, "ghost@example.edu", "any"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

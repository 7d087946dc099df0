package app_test

import (
	"testing"
	"time"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
)

func TestComputeStatsEmpty(t *testing.T) {
	stats := app.ComputeStats(nil)
	if stats.TotalAttempts != 0 || stats.AverageScore != 0 || stats.BestScore != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestComputeStatsAggregates(t *testing.T) {
	now := time.Now()
	attempts := []domain.AttemptSnapshot{
		{Score: 80, TimeSpent: 120, CompletedAt: now, TotalQuestions: 2, Answers: make([]domain.AnswerRecord, 2)},
		{Score: 55, TimeSpent: 300, CompletedAt: now, TotalQuestions: 4, Answers: make([]domain.AnswerRecord, 2)},
		{Score: 90, TimeSpent: 90, CompletedAt: now, TotalQuestions: 1, Answers: make([]domain.AnswerRecord, 1)},
	}
	stats := app.ComputeStats(attempts)

	if stats.TotalAttempts != 3 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	// Only the fully answered attempts count as completed.
	if stats.Completed != 2 {
		t.Fatalf("expected 2 completed, got %d", stats.Completed)
	}
	if stats.BestScore != 90 {
		t.Fatalf("expected best 90, got %d", stats.BestScore)
	}
	if stats.AverageScore != 75.0 {
		t.Fatalf("expected average 75.0, got %f", stats.AverageScore)
	}
	if stats.TotalTimeSpent != 510 {
		t.Fatalf("expected 510s total, got %d", stats.TotalTimeSpent)
	}
}

func TestComputeStatsCompletionRequiresAnswers(t *testing.T) {
	now := time.Now()
	attempts := []domain.AttemptSnapshot{
		// Submitted with nothing answered: an attempt, not a completion.
		{Score: 0, CompletedAt: now, TotalQuestions: 5},
	}
	stats := app.ComputeStats(attempts)
	if stats.TotalAttempts != 1 || stats.Completed != 0 {
		t.Fatalf("abandoned attempt must not count as completed, got %+v", stats)
	}
}

func TestComputeStatsRoundsAverage(t *testing.T) {
	now := time.Now()
	attempts := []domain.AttemptSnapshot{
		{Score: 50, CompletedAt: now},
		{Score: 55, CompletedAt: now},
		{Score: 55, CompletedAt: now},
	}
	stats := app.ComputeStats(attempts)
	if stats.AverageScore != 53.3 {
		t.Fatalf("expected 53.3, got %f", stats.AverageScore)
	}
}

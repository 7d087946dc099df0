package app

import (
	"math"

	"quizdeck-service/internal/domain"
)

// ComputeStats aggregates a user's attempt history. Average score is rounded
// to one decimal; an empty history yields the zero value. An attempt counts
// as completed when every question carries a recorded answer.
func ComputeStats(attempts []domain.AttemptSnapshot) domain.AttemptStats {
	stats := domain.AttemptStats{TotalAttempts: len(attempts)}
	if len(attempts) == 0 {
		return stats
	}

	sum := 0
	for _, attempt := range attempts {
		sum += attempt.Score
		stats.TotalTimeSpent += attempt.TimeSpent
		if attempt.Score > stats.BestScore {
			stats.BestScore = attempt.Score
		}
		if attempt.TotalQuestions > 0 && len(attempt.Answers) == attempt.TotalQuestions {
			stats.Completed++
		}
	}
	stats.AverageScore = math.Round(float64(sum)/float64(len(attempts))*10) / 10
	return stats
}

package app

import (
	"strings"

	"quizdeck-service/internal/domain"
)

// FilterQuizzes projects the full quiz collection through the criteria and
// free-text query. Every non-nil criterion must match exactly; a non-empty
// query must appear (case-insensitively) in the title, description, or a
// tag. Source order is preserved and the computation is pure: identical
// inputs yield identical output, and empty criteria with an empty query
// return the collection unchanged.
func FilterQuizzes(quizzes []domain.Quiz, criteria domain.FilterCriteria, query string) []domain.Quiz {
	query = strings.ToLower(strings.TrimSpace(query))
	filtered := make([]domain.Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		if !matchesCriteria(quiz, criteria) {
			continue
		}
		if query != "" && !matchesQuery(quiz, query) {
			continue
		}
		filtered = append(filtered, quiz)
	}
	return filtered
}

func matchesCriteria(quiz domain.Quiz, criteria domain.FilterCriteria) bool {
	if criteria.UniversityID != nil && quiz.UniversityID != *criteria.UniversityID {
		return false
	}
	if criteria.FacultyID != nil && quiz.FacultyID != *criteria.FacultyID {
		return false
	}
	if criteria.SubjectID != nil && quiz.SubjectID != *criteria.SubjectID {
		return false
	}
	if criteria.Level != nil && quiz.Level != *criteria.Level {
		return false
	}
	if criteria.Difficulty != nil && quiz.Difficulty != *criteria.Difficulty {
		return false
	}
	if criteria.Pro != nil && quiz.Pro != *criteria.Pro {
		return false
	}
	return true
}

func matchesQuery(quiz domain.Quiz, loweredQuery string) bool {
	if strings.Contains(strings.ToLower(quiz.Title), loweredQuery) {
		return true
	}
	if strings.Contains(strings.ToLower(quiz.Description), loweredQuery) {
		return true
	}
	for _, tag := range quiz.Tags {
		if strings.Contains(strings.ToLower(tag), loweredQuery) {
			return true
		}
	}
	return false
}

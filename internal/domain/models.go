package domain

import "time"

// Difficulty buckets quizzes for filtering. Values outside the known set are
// tolerated; the filter compares them verbatim.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

// Question models an MCQ question with exactly one correct option index.
type Question struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation,omitempty"`
	Points      int      `json:"points"` // defaults to 1 if zero
}

// Quiz is read-only content plus the catalog metadata the filter matches on.
type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	SubjectID     string     `json:"subjectId,omitempty"`
	UniversityID  string     `json:"universityId,omitempty"`
	FacultyID     string     `json:"facultyId,omitempty"`
	Level         string     `json:"level,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	DurationMin   int        `json:"durationMinutes,omitempty"`
	QuestionCount int        `json:"questionCount,omitempty"`
	Pro           bool       `json:"isPro"`
	Tags          []string   `json:"tags,omitempty"`
	Questions     []Question `json:"questions"`
}

// AnswerRecord is the stored outcome of selecting an option for one question.
// Correct is decided at answer time against the question and never recomputed.
type AnswerRecord struct {
	QuestionID string    `json:"questionId"`
	Selected   int       `json:"selectedOption"`
	Correct    bool      `json:"isCorrect"`
	TimeSpent  int       `json:"timeSpentSeconds"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// AttemptSnapshot is the frozen outcome of one run-through, produced on
// submit and handed to the persistence sink and leaderboard.
type AttemptSnapshot struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	QuizID         string         `json:"quizId"`
	Score          int            `json:"score"`
	CorrectCount   int            `json:"correctCount"`
	TotalQuestions int            `json:"totalQuestions"`
	Answers        []AnswerRecord `json:"answers"`
	StartedAt      time.Time      `json:"startedAt"`
	CompletedAt    time.Time      `json:"completedAt"`
	TimeSpent      int            `json:"timeSpentSeconds"`
}

// LeaderboardEntry ranks one completed attempt within a quiz.
type LeaderboardEntry struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName,omitempty"`
	Score       int       `json:"score"`
	TimeSpent   int       `json:"timeSpentSeconds"`
	CompletedAt time.Time `json:"completedAt"`
}

// FilterCriteria holds the optional equality filters of the catalog
// projection. Nil pointers mean "no constraint".
type FilterCriteria struct {
	UniversityID *string
	FacultyID    *string
	SubjectID    *string
	Level        *string
	Difficulty   *Difficulty
	Pro          *bool
}

// AttemptStats aggregates a user's completed attempts.
type AttemptStats struct {
	TotalAttempts  int     `json:"totalAttempts"`
	Completed      int     `json:"completed"`
	AverageScore   float64 `json:"averageScore"`
	BestScore      int     `json:"bestScore"`
	TotalTimeSpent int     `json:"totalTimeSpentSeconds"`
}

// User is the identity attached to saved attempts. The session logic only
// passes the ID through; it never interprets it.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// University, Faculty and Subject are read-only catalog records served
// alongside the quiz listing.
type University struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Acronym string `json:"acronym,omitempty"`
	City    string `json:"city,omitempty"`
}

type Faculty struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UniversityID string `json:"universityId"`
}

type Subject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

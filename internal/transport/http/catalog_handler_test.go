package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
	"quizdeck-service/internal/infra/memory"
)

func newCatalogHandler(t *testing.T) (*CatalogHandler, *app.QuizService) {
	t.Helper()
	quizzes := []domain.Quiz{
		{
			ID:         "quiz-1",
			Title:      "Python Basics",
			SubjectID:  "cs101",
			Difficulty: domain.DifficultyBeginner,
			Questions:  []domain.Question{{ID: "q1", Options: []string{"a", "b"}, Correct: 0}},
		},
		{
			ID:         "quiz-2",
			Title:      "Linear Algebra",
			SubjectID:  "math201",
			Difficulty: domain.DifficultyAdvanced,
			Pro:        true,
			Questions:  []domain.Question{{ID: "q1", Options: []string{"a", "b"}, Correct: 1}},
		},
	}
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(quizzes), time.Minute)
	service := app.NewQuizService(
		memory.NewSessionStore(),
		quizRepo,
		quizRepo,
		memory.NewAttemptStore(),
		memory.NewLeaderboard(),
		nil,
	)
	directory := memory.NewCatalogDirectory(
		[]domain.University{{ID: "univ-1", Name: "State Polytechnic"}},
		[]domain.Faculty{
			{ID: "fac-1", Name: "Computer Science", UniversityID: "univ-1"},
			{ID: "fac-2", Name: "Engineering", UniversityID: "univ-2"},
		},
		[]domain.Subject{{ID: "subj-cs", Name: "Programming"}},
	)
	return NewCatalogHandler(service, directory, nil), service
}

func TestServeCatalog(t *testing.T) {
	handler, _ := newCatalogHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeCatalog(rec, httptest.NewRequest("GET", "/catalog", nil))
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Universities []domain.University `json:"universities"`
		Faculties    []domain.Faculty    `json:"faculties"`
		Subjects     []domain.Subject    `json:"subjects"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Universities) != 1 || payload.Universities[0].ID != "univ-1" {
		t.Fatalf("unexpected universities %+v", payload.Universities)
	}
	if len(payload.Faculties) != 2 || len(payload.Subjects) != 1 {
		t.Fatalf("unexpected catalog %+v", payload)
	}

	// ?university= narrows the faculty list.
	rec = httptest.NewRecorder()
	handler.ServeCatalog(rec, httptest.NewRequest("GET", "/catalog?university=univ-1", nil))
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if len(payload.Faculties) != 1 || payload.Faculties[0].ID != "fac-1" {
		t.Fatalf("expected only univ-1 faculties, got %+v", payload.Faculties)
	}
}

func TestServeQuizzesFiltersAndStripsQuestions(t *testing.T) {
	handler, _ := newCatalogHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeQuizzes(rec, httptest.NewRequest("GET", "/quizzes?subject=cs101", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listing []domain.Quiz
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing) != 1 || listing[0].ID != "quiz-1" {
		t.Fatalf("unexpected listing %+v", listing)
	}
	if listing[0].Questions != nil {
		t.Fatalf("listing must not carry question bodies")
	}
}

func TestServeQuizzesTextQuery(t *testing.T) {
	handler, _ := newCatalogHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeQuizzes(rec, httptest.NewRequest("GET", "/quizzes?query=algebra", nil))

	var listing []domain.Quiz
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing) != 1 || listing[0].ID != "quiz-2" {
		t.Fatalf("unexpected listing %+v", listing)
	}
}

func TestServeLeaderboard(t *testing.T) {
	handler, service := newCatalogHandler(t)
	ctx := context.Background()

	if _, err := service.LoadQuiz(ctx, "s1", "u1", "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := service.Start("s1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Answer("s1", "q1", 0); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := service.Submit(ctx, "s1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeLeaderboard(rec, httptest.NewRequest("GET", "/leaderboard?quizId=quiz-1", nil))
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []domain.LeaderboardEntry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != "u1" || entries[0].Score != 100 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	rec = httptest.NewRecorder()
	handler.ServeLeaderboard(rec, httptest.NewRequest("GET", "/leaderboard", nil))
	if rec.Code != 400 {
		t.Fatalf("expected 400 without quizId, got %d", rec.Code)
	}
}

func TestServeAttempts(t *testing.T) {
	handler, service := newCatalogHandler(t)
	ctx := context.Background()

	if _, err := service.LoadQuiz(ctx, "s1", "u1", "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := service.Start("s1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Submit(ctx, "s1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeAttempts(rec, httptest.NewRequest("GET", "/attempts?userId=u1", nil))
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Attempts []domain.AttemptSnapshot `json:"attempts"`
		Stats    domain.AttemptStats      `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Attempts) != 1 || payload.Stats.TotalAttempts != 1 {
		t.Fatalf("unexpected payload %+v", payload)
	}

	rec = httptest.NewRecorder()
	handler.ServeAttempts(rec, httptest.NewRequest("GET", "/attempts", nil))
	if rec.Code != 400 {
		t.Fatalf("expected 400 without userId, got %d", rec.Code)
	}
}

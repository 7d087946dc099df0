package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
)

// CatalogHandler serves the filtered quiz listing, reference records,
// leaderboards and attempt history.
type CatalogHandler struct {
	service   *app.QuizService
	directory app.CatalogDirectory
	log       *zap.Logger
}

func NewCatalogHandler(service *app.QuizService, directory app.CatalogDirectory, log *zap.Logger) *CatalogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogHandler{service: service, directory: directory, log: log}
}

// ServeQuizzes handles GET /quizzes with optional filter/query parameters.
func (h *CatalogHandler) ServeQuizzes(w http.ResponseWriter, r *http.Request) {
	criteria := criteriaFromQuery(r)
	query := r.URL.Query().Get("query")

	quizzes, err := h.service.SearchQuizzes(r.Context(), criteria, query)
	if err != nil {
		h.log.Warn("quiz listing failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Strip question bodies from the listing; content is only served to an
	// active session.
	listing := make([]domain.Quiz, len(quizzes))
	for i, quiz := range quizzes {
		quiz.Questions = nil
		listing[i] = quiz
	}
	writeJSON(w, http.StatusOK, listing)
}

// ServeCatalog handles GET /catalog and returns the read-only reference
// records. An optional ?university= parameter narrows the faculty list.
func (h *CatalogHandler) ServeCatalog(w http.ResponseWriter, r *http.Request) {
	universities, err := h.directory.Universities(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	faculties, err := h.directory.Faculties(r.Context(), r.URL.Query().Get("university"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	subjects, err := h.directory.Subjects(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"universities": universities,
		"faculties":    faculties,
		"subjects":     subjects,
	})
}

// ServeLeaderboard handles GET /leaderboard?quizId=&limit=.
func (h *CatalogHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.service.Leaderboard(r.Context(), quizID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ServeAttempts handles GET /attempts?userId= and returns the history plus
// aggregate stats.
func (h *CatalogHandler) ServeAttempts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	attempts, stats, err := h.service.Attempts(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attempts": attempts,
		"stats":    stats,
	})
}

func criteriaFromQuery(r *http.Request) domain.FilterCriteria {
	var criteria domain.FilterCriteria
	q := r.URL.Query()
	if v := q.Get("university"); v != "" {
		criteria.UniversityID = &v
	}
	if v := q.Get("faculty"); v != "" {
		criteria.FacultyID = &v
	}
	if v := q.Get("subject"); v != "" {
		criteria.SubjectID = &v
	}
	if v := q.Get("level"); v != "" {
		criteria.Level = &v
	}
	if v := q.Get("difficulty"); v != "" {
		d := domain.Difficulty(v)
		criteria.Difficulty = &d
	}
	if v := q.Get("pro"); v != "" {
		pro := v == "true" || v == "1"
		criteria.Pro = &pro
	}
	return criteria
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

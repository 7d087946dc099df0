package memory

import (
	"context"

	"quizdeck-service/internal/domain"
)

// CatalogDirectory is a fixture-backed implementation of app.CatalogDirectory.
// The records are read-only; callers get copies in insertion order.
type CatalogDirectory struct {
	universities []domain.University
	faculties    []domain.Faculty
	subjects     []domain.Subject
}

func NewCatalogDirectory(universities []domain.University, faculties []domain.Faculty, subjects []domain.Subject) *CatalogDirectory {
	return &CatalogDirectory{
		universities: universities,
		faculties:    faculties,
		subjects:     subjects,
	}
}

func (d *CatalogDirectory) Universities(_ context.Context) ([]domain.University, error) {
	out := make([]domain.University, len(d.universities))
	copy(out, d.universities)
	return out, nil
}

// Faculties returns all faculties, or only those belonging to universityID
// when it is non-empty.
func (d *CatalogDirectory) Faculties(_ context.Context, universityID string) ([]domain.Faculty, error) {
	out := make([]domain.Faculty, 0, len(d.faculties))
	for _, faculty := range d.faculties {
		if universityID != "" && faculty.UniversityID != universityID {
			continue
		}
		out = append(out, faculty)
	}
	return out, nil
}

func (d *CatalogDirectory) Subjects(_ context.Context) ([]domain.Subject, error) {
	out := make([]domain.Subject, len(d.subjects))
	copy(out, d.subjects)
	return out, nil
}

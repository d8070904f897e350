package seed

import (
	"context"
	"fmt"
	"testing"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// memCatalog keeps years and semesters in memory
type memCatalog struct {
	services.CatalogService
	years   []*models.Year
	creates int
}

func (m *memCatalog) Tree(context.Context) ([]*models.Year, error) {
	return m.years, nil
}

func (m *memCatalog) CreateYear(_ context.Context, number int) (*models.Year, error) {
	for _, y := range m.years {
		if y.Number == number {
			return nil, apperrors.ErrYearAlreadyExists
		}
	}
	m.creates++
	y := &models.Year{ID: fmt.Sprintf("y%d", number), Number: number}
	m.years = append(m.years, y)
	return y, nil
}

func (m *memCatalog) CreateSemester(_ context.Context, yearID string, number int) (*models.Semester, error) {
	for _, y := range m.years {
		if y.ID != yearID {
			continue
		}
		for _, s := range y.Semesters {
			if s.Number == number {
				return nil, apperrors.ErrSemesterAlreadyExists
			}
		}
		m.creates++
		s := &models.Semester{ID: fmt.Sprintf("%s-s%d", yearID, number), Number: number, YearID: yearID}
		y.Semesters = append(y.Semesters, s)
		return s, nil
	}
	return nil, apperrors.ErrYearNotFound
}

func TestCreateDefaultDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	catalog := &memCatalog{years: []*models.Year{
		{ID: "y1", Number: 1, Semesters: []*models.Semester{{ID: "y1-s1", Number: 1, YearID: "y1"}}},
	}}

	if err := CreateDefaultData(ctx, catalog, zerolog.Nop()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(catalog.years) != DefaultYears {
		t.Fatalf("expected %d years, got %d", DefaultYears, len(catalog.years))
	}
	for _, y := range catalog.years {
		if len(y.Semesters) != DefaultSemestersPerYear {
			t.Fatalf("year %d has %d semesters", y.Number, len(y.Semesters))
		}
	}
	// 3 new years, 7 new semesters
	if catalog.creates != 10 {
		t.Fatalf("expected 10 creates, got %d", catalog.creates)
	}

	if err := CreateDefaultData(ctx, catalog, zerolog.Nop()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if catalog.creates != 10 {
		t.Fatalf("second run created rows: %d", catalog.creates)
	}
}

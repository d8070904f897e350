package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/cache"
)

type fakeYears struct {
	years     map[string]*models.Year
	treeCalls int
}

func (f *fakeYears) Create(_ context.Context, y *models.Year) error {
	for _, existing := range f.years {
		if existing.Number == y.Number {
			return apperrors.ErrYearAlreadyExists
		}
	}
	f.years[y.ID] = y
	return nil
}

func (f *fakeYears) GetByID(_ context.Context, id string) (*models.Year, error) {
	if y, ok := f.years[id]; ok {
		cp := *y
		return &cp, nil
	}
	return nil, apperrors.ErrYearNotFound
}

func (f *fakeYears) Tree(context.Context) ([]*models.Year, error) {
	f.treeCalls++
	out := []*models.Year{}
	for _, y := range f.years {
		out = append(out, y)
	}
	return out, nil
}

func (f *fakeYears) Delete(_ context.Context, id string) error {
	if _, ok := f.years[id]; !ok {
		return apperrors.ErrYearNotFound
	}
	delete(f.years, id)
	return nil
}

type fakeSemesters struct {
	semesters map[string]*models.Semester
}

func (f *fakeSemesters) Create(_ context.Context, s *models.Semester) error {
	f.semesters[s.ID] = s
	return nil
}

func (f *fakeSemesters) GetByID(_ context.Context, id string) (*models.Semester, error) {
	if s, ok := f.semesters[id]; ok {
		return s, nil
	}
	return nil, apperrors.ErrSemesterNotFound
}

func (f *fakeSemesters) ListByYear(_ context.Context, yearID string) ([]*models.Semester, error) {
	out := []*models.Semester{}
	for _, s := range f.semesters {
		if s.YearID == yearID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSemesters) Delete(_ context.Context, id string) error {
	if _, ok := f.semesters[id]; !ok {
		return apperrors.ErrSemesterNotFound
	}
	delete(f.semesters, id)
	return nil
}

func newCatalogFixture() (*fakeYears, *fakeSemesters, *fakeSubjects, CatalogService) {
	years := &fakeYears{years: map[string]*models.Year{}}
	semesters := &fakeSemesters{semesters: map[string]*models.Semester{}}
	subjects := &fakeSubjects{subjects: map[string]*models.Subject{}}
	tree := cache.New[[]*models.Year]("catalog_test", 4, time.Minute)
	return years, semesters, subjects, NewCatalogService(years, semesters, subjects, tree)
}

func TestCatalogScenario(t *testing.T) {
	_, _, _, svc := newCatalogFixture()
	ctx := context.Background()

	year, err := svc.CreateYear(ctx, 1)
	if err != nil {
		t.Fatalf("create year: %v", err)
	}
	semester, err := svc.CreateSemester(ctx, year.ID, 1)
	if err != nil {
		t.Fatalf("create semester: %v", err)
	}
	subject, err := svc.CreateSubject(ctx, &models.Subject{Name: "Algorithms", Code: " cs201 ", SemesterID: semester.ID})
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	if subject.Code != "CS201" {
		t.Fatalf("code should be normalized, got %q", subject.Code)
	}

	if _, err := svc.CreateSubject(ctx, &models.Subject{Name: "Algorithms II", Code: "CS201", SemesterID: semester.ID}); !errors.Is(err, apperrors.ErrSubjectAlreadyExists) {
		t.Fatalf("duplicate code: expected ErrSubjectAlreadyExists, got %v", err)
	}

	got, err := svc.GetYear(ctx, year.ID)
	if err != nil || len(got.Semesters) != 1 {
		t.Fatalf("get year: %+v %v", got, err)
	}

	subjects, err := svc.ListSubjects(ctx, semester.ID)
	if err != nil || len(subjects) != 1 {
		t.Fatalf("list subjects: %v %v", subjects, err)
	}
	if _, err := svc.ListSubjects(ctx, "missing"); !errors.Is(err, apperrors.ErrSemesterNotFound) {
		t.Fatalf("expected ErrSemesterNotFound, got %v", err)
	}
}

func TestCreateYearDuplicateConflicts(t *testing.T) {
	years, _, _, svc := newCatalogFixture()
	ctx := context.Background()

	if _, err := svc.CreateYear(ctx, 1); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateYear(ctx, 1); !errors.Is(err, apperrors.ErrYearAlreadyExists) {
		t.Fatalf("expected ErrYearAlreadyExists, got %v", err)
	}
	if len(years.years) != 1 {
		t.Fatalf("existing years must be unaffected, have %d", len(years.years))
	}
	if _, err := svc.CreateYear(ctx, 0); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
}

func TestCatalogTreeIsCachedUntilWrite(t *testing.T) {
	years, _, _, svc := newCatalogFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Tree(ctx); err != nil {
			t.Fatalf("tree: %v", err)
		}
	}
	if years.treeCalls != 1 {
		t.Fatalf("tree should be served from cache, store hit %d times", years.treeCalls)
	}

	if _, err := svc.CreateYear(ctx, 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	tree, err := svc.Tree(ctx)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if years.treeCalls != 2 || len(tree) != 1 {
		t.Fatalf("write should invalidate the cache: calls=%d len=%d", years.treeCalls, len(tree))
	}
}

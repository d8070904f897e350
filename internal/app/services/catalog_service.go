package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/cache"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

const catalogTreeKey = "tree"

// CatalogService defines the Year / Semester / Subject operations
type CatalogService interface {
	Tree(ctx context.Context) ([]*models.Year, error)
	GetYear(ctx context.Context, id string) (*models.Year, error)
	CreateYear(ctx context.Context, number int) (*models.Year, error)
	DeleteYear(ctx context.Context, id string) error

	CreateSemester(ctx context.Context, yearID string, number int) (*models.Semester, error)
	DeleteSemester(ctx context.Context, id string) error

	ListSubjects(ctx context.Context, semesterID string) ([]*models.Subject, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	CreateSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error)
	UpdateSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error)
	DeleteSubject(ctx context.Context, id string) error
}

// catalogServiceImpl implements the CatalogService interface
type catalogServiceImpl struct {
	years     YearStore
	semesters SemesterStore
	subjects  SubjectStore
	tree      *cache.LRU[[]*models.Year]
}

// NewCatalogService creates a new catalog service instance. tree may be nil
// to disable caching.
func NewCatalogService(years YearStore, semesters SemesterStore, subjects SubjectStore, tree *cache.LRU[[]*models.Year]) CatalogService {
	return &catalogServiceImpl{
		years:     years,
		semesters: semesters,
		subjects:  subjects,
		tree:      tree,
	}
}

func (s *catalogServiceImpl) invalidate() {
	if s.tree != nil {
		s.tree.Purge()
	}
}

// Tree returns every year with its semesters and subjects
func (s *catalogServiceImpl) Tree(ctx context.Context) ([]*models.Year, error) {
	if s.tree != nil {
		if years, ok := s.tree.Get(catalogTreeKey); ok {
			return years, nil
		}
	}

	years, err := s.years.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving catalog: %w", err)
	}

	if s.tree != nil {
		s.tree.Set(catalogTreeKey, years)
	}
	return years, nil
}

// GetYear returns a year with its semesters
func (s *catalogServiceImpl) GetYear(ctx context.Context, id string) (*models.Year, error) {
	year, err := s.years.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrYearNotFound) {
			return nil, apperrors.ErrYearNotFound
		}
		return nil, fmt.Errorf("error retrieving year: %w", err)
	}

	semesters, err := s.semesters.ListByYear(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving semesters: %w", err)
	}
	year.Semesters = semesters
	return year, nil
}

// CreateYear creates a new year
func (s *catalogServiceImpl) CreateYear(ctx context.Context, number int) (*models.Year, error) {
	if number < 1 {
		return nil, fmt.Errorf("%w: year number must be positive", apperrors.ErrValidationFailed)
	}

	year := &models.Year{ID: uuid.NewString(), Number: number}
	if err := s.years.Create(ctx, year); err != nil {
		if errors.Is(err, apperrors.ErrYearAlreadyExists) {
			return nil, apperrors.ErrYearAlreadyExists
		}
		return nil, fmt.Errorf("error creating year: %w", err)
	}

	s.invalidate()
	logger.Info().Str("yearID", year.ID).Int("number", number).Msg("Year created")
	return year, nil
}

// DeleteYear deletes a year without semesters
func (s *catalogServiceImpl) DeleteYear(ctx context.Context, id string) error {
	if err := s.years.Delete(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrYearNotFound, apperrors.ErrHasDependents) {
			return err
		}
		return fmt.Errorf("error deleting year: %w", err)
	}
	s.invalidate()
	return nil
}

// CreateSemester creates a semester under a year
func (s *catalogServiceImpl) CreateSemester(ctx context.Context, yearID string, number int) (*models.Semester, error) {
	if number < 1 {
		return nil, fmt.Errorf("%w: semester number must be positive", apperrors.ErrValidationFailed)
	}

	semester := &models.Semester{ID: uuid.NewString(), Number: number, YearID: yearID}
	if err := s.semesters.Create(ctx, semester); err != nil {
		if apperrors.Is(err, apperrors.ErrYearNotFound, apperrors.ErrSemesterAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating semester: %w", err)
	}

	s.invalidate()
	return semester, nil
}

// DeleteSemester deletes a semester without subjects
func (s *catalogServiceImpl) DeleteSemester(ctx context.Context, id string) error {
	if err := s.semesters.Delete(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrSemesterNotFound, apperrors.ErrHasDependents) {
			return err
		}
		return fmt.Errorf("error deleting semester: %w", err)
	}
	s.invalidate()
	return nil
}

// ListSubjects lists the subjects of an existing semester
func (s *catalogServiceImpl) ListSubjects(ctx context.Context, semesterID string) ([]*models.Subject, error) {
	if _, err := s.semesters.GetByID(ctx, semesterID); err != nil {
		if errors.Is(err, apperrors.ErrSemesterNotFound) {
			return nil, apperrors.ErrSemesterNotFound
		}
		return nil, fmt.Errorf("error retrieving semester: %w", err)
	}

	subjects, err := s.subjects.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving subjects: %w", err)
	}
	return subjects, nil
}

// GetSubject retrieves a subject by ID
func (s *catalogServiceImpl) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrSubjectNotFound) {
			return nil, apperrors.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("error retrieving subject: %w", err)
	}
	return subject, nil
}

// normalizeSubject trims the fields and upper-cases the code
func normalizeSubject(subject *models.Subject) error {
	subject.Name = strings.TrimSpace(subject.Name)
	subject.Code = strings.ToUpper(strings.TrimSpace(subject.Code))
	if subject.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if subject.Code == "" {
		return fmt.Errorf("%w: code cannot be empty", apperrors.ErrValidationFailed)
	}
	return nil
}

// CreateSubject creates a subject under a semester
func (s *catalogServiceImpl) CreateSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error) {
	if err := normalizeSubject(subject); err != nil {
		return nil, err
	}
	subject.ID = uuid.NewString()

	if err := s.subjects.Create(ctx, subject); err != nil {
		if apperrors.Is(err, apperrors.ErrSemesterNotFound, apperrors.ErrSubjectAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating subject: %w", err)
	}

	s.invalidate()
	return subject, nil
}

// UpdateSubject updates the name, code and description of a subject
func (s *catalogServiceImpl) UpdateSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error) {
	if err := normalizeSubject(subject); err != nil {
		return nil, err
	}

	if err := s.subjects.Update(ctx, subject); err != nil {
		if apperrors.Is(err, apperrors.ErrSubjectNotFound, apperrors.ErrSubjectAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating subject: %w", err)
	}

	s.invalidate()
	return subject, nil
}

// DeleteSubject deletes a subject without notes
func (s *catalogServiceImpl) DeleteSubject(ctx context.Context, id string) error {
	if err := s.subjects.Delete(ctx, id); err != nil {
		if apperrors.Is(err, apperrors.ErrSubjectNotFound, apperrors.ErrHasDependents) {
			return err
		}
		return fmt.Errorf("error deleting subject: %w", err)
	}
	s.invalidate()
	return nil
}

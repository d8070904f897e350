package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/db"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/dberrors"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// YearRepository handles year database operations
type YearRepository struct {
	db db.DBTX
}

// NewYearRepository creates a new YearRepository
func NewYearRepository(q db.DBTX) *YearRepository {
	return &YearRepository{db: q}
}

// Create inserts a year
func (r *YearRepository) Create(ctx context.Context, year *models.Year) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}

	sql, args, err := psql.Insert("years").
		Columns("id", "number").
		Values(year.ID, year.Number).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create year SQL")
		return fmt.Errorf("failed to build create year query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&year.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "years_number_key") {
			return apperrors.ErrYearAlreadyExists
		}
		logger.Error().Err(err).Int("number", year.Number).Msg("Error creating year")
		return fmt.Errorf("error creating year: %w", err)
	}
	return nil
}

// GetByID retrieves a year without its children
func (r *YearRepository) GetByID(ctx context.Context, id string) (*models.Year, error) {
	sql, args, err := psql.Select("id", "number", "created_at").
		From("years").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get year query: %w", err)
	}

	y := &models.Year{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&y.ID, &y.Number, &y.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrYearNotFound
		}
		logger.Error().Err(err).Str("yearID", id).Msg("Error getting year")
		return nil, fmt.Errorf("error getting year: %w", err)
	}
	return y, nil
}

// Tree returns every year with its semesters and subjects, ordered by number
func (r *YearRepository) Tree(ctx context.Context) ([]*models.Year, error) {
	sql, args, err := psql.Select(
		"y.id", "y.number", "y.created_at",
		"s.id", "s.number", "s.created_at",
		"sub.id", "sub.name", "sub.code", "sub.description", "sub.created_at", "sub.updated_at",
	).
		From("years y").
		LeftJoin("semesters s ON s.year_id = y.id").
		LeftJoin("subjects sub ON sub.semester_id = s.id").
		OrderBy("y.number", "s.number", "sub.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog tree query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying catalog tree")
		return nil, fmt.Errorf("error querying catalog tree: %w", err)
	}
	defer rows.Close()

	years := []*models.Year{}
	yearByID := map[string]*models.Year{}
	semesterByID := map[string]*models.Semester{}
	for rows.Next() {
		var (
			y          models.Year
			semID      *string
			semNum     *int
			semCreated *time.Time
			subID      *string
			subName    *string
			subCode    *string
			subDesc    *string
			subCreated *time.Time
			subUpdated *time.Time
		)
		if err := rows.Scan(
			&y.ID, &y.Number, &y.CreatedAt,
			&semID, &semNum, &semCreated,
			&subID, &subName, &subCode, &subDesc, &subCreated, &subUpdated,
		); err != nil {
			return nil, fmt.Errorf("error scanning catalog row: %w", err)
		}

		year, ok := yearByID[y.ID]
		if !ok {
			year = &models.Year{ID: y.ID, Number: y.Number, CreatedAt: y.CreatedAt, Semesters: []*models.Semester{}}
			yearByID[y.ID] = year
			years = append(years, year)
		}
		if semID == nil {
			continue
		}

		semester, ok := semesterByID[*semID]
		if !ok {
			semester = &models.Semester{ID: *semID, Number: *semNum, YearID: y.ID, CreatedAt: *semCreated, Subjects: []*models.Subject{}}
			semesterByID[*semID] = semester
			year.Semesters = append(year.Semesters, semester)
		}
		if subID == nil {
			continue
		}

		semester.Subjects = append(semester.Subjects, &models.Subject{
			ID:          *subID,
			Name:        *subName,
			Code:        *subCode,
			Description: subDesc,
			SemesterID:  *semID,
			CreatedAt:   *subCreated,
			UpdatedAt:   *subUpdated,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}
	return years, nil
}

// Delete removes a year that has no semesters
func (r *YearRepository) Delete(ctx context.Context, id string) error {
	var hasChildren bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM semesters WHERE year_id = $1)", id).Scan(&hasChildren); err != nil {
		logger.Error().Err(err).Str("yearID", id).Msg("Error checking year semesters")
		return fmt.Errorf("error checking year semesters: %w", err)
	}
	if hasChildren {
		return apperrors.ErrHasDependents
	}

	return deleteByID(ctx, r.db, "years", id, apperrors.ErrYearNotFound)
}

// SemesterRepository handles semester database operations
type SemesterRepository struct {
	db db.DBTX
}

// NewSemesterRepository creates a new SemesterRepository
func NewSemesterRepository(q db.DBTX) *SemesterRepository {
	return &SemesterRepository{db: q}
}

// Create inserts a semester under an existing year
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}

	sql, args, err := psql.Insert("semesters").
		Columns("id", "number", "year_id").
		Values(semester.ID, semester.Number, semester.YearID).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create semester query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&semester.CreatedAt); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "semesters_year_number_key"):
			return apperrors.ErrSemesterAlreadyExists
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.ErrYearNotFound
		}
		logger.Error().Err(err).Str("yearID", semester.YearID).Msg("Error creating semester")
		return fmt.Errorf("error creating semester: %w", err)
	}
	return nil
}

// GetByID retrieves a semester
func (r *SemesterRepository) GetByID(ctx context.Context, id string) (*models.Semester, error) {
	sql, args, err := psql.Select("id", "number", "year_id", "created_at").
		From("semesters").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get semester query: %w", err)
	}

	s := &models.Semester{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.Number, &s.YearID, &s.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrSemesterNotFound
		}
		logger.Error().Err(err).Str("semesterID", id).Msg("Error getting semester")
		return nil, fmt.Errorf("error getting semester: %w", err)
	}
	return s, nil
}

// ListByYear returns the semesters of a year ordered by number
func (r *SemesterRepository) ListByYear(ctx context.Context, yearID string) ([]*models.Semester, error) {
	sql, args, err := psql.Select("id", "number", "year_id", "created_at").
		From("semesters").
		Where(squirrel.Eq{"year_id": yearID}).
		OrderBy("number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list semesters query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("yearID", yearID).Msg("Error listing semesters")
		return nil, fmt.Errorf("error listing semesters: %w", err)
	}
	defer rows.Close()

	semesters := []*models.Semester{}
	for rows.Next() {
		s := &models.Semester{}
		if err := rows.Scan(&s.ID, &s.Number, &s.YearID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning semester row: %w", err)
		}
		semesters = append(semesters, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating semester rows: %w", err)
	}
	return semesters, nil
}

// Delete removes a semester that has no subjects
func (r *SemesterRepository) Delete(ctx context.Context, id string) error {
	var hasChildren bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM subjects WHERE semester_id = $1)", id).Scan(&hasChildren); err != nil {
		logger.Error().Err(err).Str("semesterID", id).Msg("Error checking semester subjects")
		return fmt.Errorf("error checking semester subjects: %w", err)
	}
	if hasChildren {
		return apperrors.ErrHasDependents
	}

	return deleteByID(ctx, r.db, "semesters", id, apperrors.ErrSemesterNotFound)
}

var subjectColumns = []string{"id", "name", "code", "description", "semester_id", "created_at", "updated_at"}

// SubjectRepository handles subject database operations
type SubjectRepository struct {
	db db.DBTX
}

// NewSubjectRepository creates a new SubjectRepository
func NewSubjectRepository(q db.DBTX) *SubjectRepository {
	return &SubjectRepository{db: q}
}

func scanSubject(row pgx.Row) (*models.Subject, error) {
	s := &models.Subject{}
	err := row.Scan(&s.ID, &s.Name, &s.Code, &s.Description, &s.SemesterID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a subject under an existing semester
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}

	sql, args, err := psql.Insert("subjects").
		Columns("id", "name", "code", "description", "semester_id").
		Values(subject.ID, subject.Name, subject.Code, subject.Description, subject.SemesterID).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create subject query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&subject.CreatedAt, &subject.UpdatedAt); err != nil {
		return subjectWriteError(err, subject)
	}
	return nil
}

// Update rewrites a subject's mutable fields
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	sql, args, err := psql.Update("subjects").
		SetMap(map[string]interface{}{
			"name":        subject.Name,
			"code":        subject.Code,
			"description": subject.Description,
			"updated_at":  squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": subject.ID}).
		Suffix("RETURNING semester_id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update subject query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&subject.SemesterID, &subject.CreatedAt, &subject.UpdatedAt); err != nil {
		if isNoRows(err) {
			return apperrors.ErrSubjectNotFound
		}
		return subjectWriteError(err, subject)
	}
	return nil
}

func subjectWriteError(err error, subject *models.Subject) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, "subjects_semester_code_key"):
		return apperrors.ErrSubjectAlreadyExists
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrSemesterNotFound
	}
	logger.Error().Err(err).Str("code", subject.Code).Msg("Error writing subject")
	return fmt.Errorf("error writing subject: %w", err)
}

// GetByID retrieves a subject
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	sql, args, err := psql.Select(subjectColumns...).
		From("subjects").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get subject query: %w", err)
	}

	s, err := scanSubject(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrSubjectNotFound
		}
		logger.Error().Err(err).Str("subjectID", id).Msg("Error getting subject")
		return nil, fmt.Errorf("error getting subject: %w", err)
	}
	return s, nil
}

// ListBySemester returns the subjects of a semester ordered by name
func (r *SubjectRepository) ListBySemester(ctx context.Context, semesterID string) ([]*models.Subject, error) {
	sql, args, err := psql.Select(subjectColumns...).
		From("subjects").
		Where(squirrel.Eq{"semester_id": semesterID}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list subjects query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("semesterID", semesterID).Msg("Error listing subjects")
		return nil, fmt.Errorf("error listing subjects: %w", err)
	}
	defer rows.Close()

	subjects := []*models.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning subject row: %w", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subject rows: %w", err)
	}
	return subjects, nil
}

// Delete removes a subject that has no notes
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	var hasNotes bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM notes WHERE subject_id = $1)", id).Scan(&hasNotes); err != nil {
		logger.Error().Err(err).Str("subjectID", id).Msg("Error checking subject notes")
		return fmt.Errorf("error checking subject notes: %w", err)
	}
	if hasNotes {
		return apperrors.ErrHasDependents
	}

	return deleteByID(ctx, r.db, "subjects", id, apperrors.ErrSubjectNotFound)
}

// deleteByID deletes one row by primary key and reports notFound when nothing matched
func deleteByID(ctx context.Context, q db.DBTX, table, id string, notFound error) error {
	sql, args, err := psql.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete %s query: %w", table, err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrHasDependents
		}
		logger.Error().Err(err).Str("table", table).Str("id", id).Msg("Error deleting row")
		return fmt.Errorf("error deleting from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

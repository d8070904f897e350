package repositories

import (
	"context"
	"fmt"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/db"
	"github.com/notesphere/notesphere/internal/pkg/helpers"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

var rejectedNoteColumns = []string{
	"id", "original_note_id", "title", "author_clerk_id", "author_name",
	"subject_id", "subject_name", "rejected_at", "deleted_at", "drive_file_id",
}

// RejectedNoteRepository reads the archive of expired rejected notes
type RejectedNoteRepository struct {
	db db.DBTX
}

// NewRejectedNoteRepository creates a new RejectedNoteRepository
func NewRejectedNoteRepository(q db.DBTX) *RejectedNoteRepository {
	return &RejectedNoteRepository{db: q}
}

// insertArchive writes a snapshot once. A replayed sweep keeps the first row.
func insertArchive(ctx context.Context, q db.DBTX, a *models.RejectedNote) error {
	sql, args, err := psql.Insert("rejected_notes").
		Columns(rejectedNoteColumns...).
		Values(a.ID, a.OriginalNoteID, a.Title, a.AuthorClerkID, a.AuthorName,
			a.SubjectID, a.SubjectName, a.RejectedAt, a.DeletedAt, a.DriveFileID).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build archive insert query: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("noteID", a.OriginalNoteID).Msg("Error archiving rejected note")
		return fmt.Errorf("error archiving rejected note: %w", err)
	}
	return nil
}

// List returns a page of archived notes, most recently deleted first
func (r *RejectedNoteRepository) List(ctx context.Context, page, size int) ([]*models.RejectedNote, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sql, args, err := psql.Select(rejectedNoteColumns...).
		From("rejected_notes").
		OrderBy("deleted_at DESC", "id").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list archive query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing archived notes")
		return nil, 0, fmt.Errorf("error listing archived notes: %w", err)
	}
	defer rows.Close()

	archived := []*models.RejectedNote{}
	for rows.Next() {
		a := &models.RejectedNote{}
		if err := rows.Scan(&a.ID, &a.OriginalNoteID, &a.Title, &a.AuthorClerkID, &a.AuthorName,
			&a.SubjectID, &a.SubjectName, &a.RejectedAt, &a.DeletedAt, &a.DriveFileID); err != nil {
			return nil, 0, fmt.Errorf("error scanning archived note row: %w", err)
		}
		archived = append(archived, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating archived note rows: %w", err)
	}
	return archived, total, nil
}

// Count returns the number of archived notes
func (r *RejectedNoteRepository) Count(ctx context.Context) (int64, error) {
	total, err := countRows(ctx, r.db, psql.Select("COUNT(*)").From("rejected_notes"))
	if err != nil {
		logger.Error().Err(err).Msg("Error counting archived notes")
		return 0, fmt.Errorf("error counting archived notes: %w", err)
	}
	return total, nil
}

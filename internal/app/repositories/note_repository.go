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
	"github.com/notesphere/notesphere/internal/pkg/helpers"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// NoteSort orders note listings
type NoteSort string

const (
	SortNewest    NoteSort = "newest"
	SortOldest    NoteSort = "oldest"
	SortPopular   NoteSort = "popular"
	SortDownloads NoteSort = "downloads"
	SortTitle     NoteSort = "title"
)

var noteSortClauses = map[NoteSort][]string{
	SortNewest:    {"n.created_at DESC", "n.id"},
	SortOldest:    {"n.created_at ASC", "n.id"},
	SortPopular:   {"like_count DESC", "n.created_at DESC"},
	SortDownloads: {"n.download_count DESC", "n.created_at DESC"},
	SortTitle:     {"n.title ASC", "n.id"},
}

// ParseNoteSort maps a query value to a known sort, defaulting to newest
func ParseNoteSort(value string) NoteSort {
	if _, ok := noteSortClauses[NoteSort(value)]; ok {
		return NoteSort(value)
	}
	return SortNewest
}

// NoteFilter narrows a note listing. Zero fields do not filter.
type NoteFilter struct {
	SubjectID     string
	AuthorClerkID string
	State         models.ModerationState
	Query         string
	Sort          NoteSort
	Page          int
	Size          int
}

// NoteRepository handles note database operations
type NoteRepository struct {
	database *db.PostgresDB
	db       db.DBTX
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(database *db.PostgresDB) *NoteRepository {
	return &NoteRepository{database: database, db: database.Pool}
}

func (r *NoteRepository) selectNotes(columns ...string) squirrel.SelectBuilder {
	cols := append([]string{
		"n.id", "n.title", "n.content", "n.type", "n.file_url", "n.drive_file_id", "n.download_count",
		"n.is_public", "n.is_rejected", "n.rejected_at", "n.author_clerk_id", "n.subject_id",
		"n.created_at", "n.updated_at",
		"COALESCE(u.name, '') AS author_name",
		"(SELECT COUNT(*) FROM likes l WHERE l.note_id = n.id) AS like_count",
	}, columns...)
	return psql.Select(cols...).
		From("notes n").
		LeftJoin("users u ON u.clerk_id = n.author_clerk_id")
}

func noteScanTargets(n *models.Note) []any {
	return []any{
		&n.ID, &n.Title, &n.Content, &n.Type, &n.FileURL, &n.DriveFileID, &n.DownloadCount,
		&n.IsPublic, &n.IsRejected, &n.RejectedAt, &n.AuthorClerkID, &n.SubjectID,
		&n.CreatedAt, &n.UpdatedAt, &n.AuthorName, &n.LikeCount,
	}
}

func scanNote(row pgx.Row) (*models.Note, error) {
	n := &models.Note{}
	if err := row.Scan(noteScanTargets(n)...); err != nil {
		return nil, err
	}
	return n, nil
}

// Create inserts a note in the pending state
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	note.IsPublic, note.IsRejected, note.RejectedAt = false, false, nil

	sql, args, err := psql.Insert("notes").
		Columns("id", "title", "content", "type", "file_url", "drive_file_id", "author_clerk_id", "subject_id").
		Values(note.ID, note.Title, note.Content, note.Type, note.FileURL, note.DriveFileID, note.AuthorClerkID, note.SubjectID).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create note SQL")
		return fmt.Errorf("failed to build create note query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&note.CreatedAt, &note.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrSubjectNotFound
		}
		logger.Error().Err(err).Str("subjectID", note.SubjectID).Msg("Error creating note")
		return fmt.Errorf("error creating note: %w", err)
	}
	return nil
}

// GetByID retrieves a note with its author name and like count
func (r *NoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	sql, args, err := r.selectNotes().Where(squirrel.Eq{"n.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get note query: %w", err)
	}

	note, err := scanNote(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrNoteNotFound
		}
		logger.Error().Err(err).Str("noteID", id).Msg("Error getting note")
		return nil, fmt.Errorf("error getting note: %w", err)
	}
	return note, nil
}

func applyNoteFilter(b squirrel.SelectBuilder, f NoteFilter) squirrel.SelectBuilder {
	if f.SubjectID != "" {
		b = b.Where(squirrel.Eq{"n.subject_id": f.SubjectID})
	}
	if f.AuthorClerkID != "" {
		b = b.Where(squirrel.Eq{"n.author_clerk_id": f.AuthorClerkID})
	}
	switch f.State {
	case models.StatePublic:
		b = b.Where(squirrel.Eq{"n.is_public": true, "n.is_rejected": false})
	case models.StatePending:
		b = b.Where(squirrel.Eq{"n.is_public": false, "n.is_rejected": false})
	case models.StateRejected:
		b = b.Where(squirrel.Eq{"n.is_rejected": true})
	}
	if f.Query != "" {
		b = b.Where(squirrel.ILike{"n.title": helpers.LikePattern(f.Query)})
	}
	return b
}

// List returns a filtered page of notes and the total matching count
func (r *NoteRepository) List(ctx context.Context, f NoteFilter) ([]*models.Note, int64, error) {
	total, err := countRows(ctx, r.db, applyNoteFilter(psql.Select("COUNT(*)").From("notes n"), f))
	if err != nil {
		logger.Error().Err(err).Msg("Error counting notes")
		return nil, 0, fmt.Errorf("error counting notes: %w", err)
	}

	order, ok := noteSortClauses[f.Sort]
	if !ok {
		order = noteSortClauses[SortNewest]
	}
	offset, limit := helpers.CalculateOffsetLimit(f.Page, f.Size)

	sql, args, err := applyNoteFilter(r.selectNotes(), f).
		OrderBy(order...).
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list notes query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing notes")
		return nil, 0, fmt.Errorf("error listing notes: %w", err)
	}
	defer rows.Close()

	notes := []*models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating note rows: %w", err)
	}
	return notes, total, nil
}

func stateFlags(s models.ModerationState) (isPublic, isRejected bool) {
	switch s {
	case models.StatePublic:
		return true, false
	case models.StateRejected:
		return false, true
	}
	return false, false
}

// UpdateModeration persists the flags of note, guarded on the state it was
// read in. A concurrent transition makes the guard miss and yields ErrConflict.
func (r *NoteRepository) UpdateModeration(ctx context.Context, note *models.Note, from models.ModerationState) error {
	wasPublic, wasRejected := stateFlags(from)

	sql, args, err := psql.Update("notes").
		Set("is_public", note.IsPublic).
		Set("is_rejected", note.IsRejected).
		Set("rejected_at", note.RejectedAt).
		Set("updated_at", note.UpdatedAt).
		Where(squirrel.Eq{"id": note.ID, "is_public": wasPublic, "is_rejected": wasRejected}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update moderation query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("noteID", note.ID).Msg("Error updating note moderation")
		return fmt.Errorf("error updating note moderation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("note was modified concurrently")
	}
	return nil
}

// IncrementDownloadCount bumps the counter atomically and returns the new value
func (r *NoteRepository) IncrementDownloadCount(ctx context.Context, id string) (int, error) {
	sql, args, err := psql.Update("notes").
		Set("download_count", squirrel.Expr("download_count + 1")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING download_count").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build increment download query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		if isNoRows(err) {
			return 0, apperrors.ErrNoteNotFound
		}
		logger.Error().Err(err).Str("noteID", id).Msg("Error incrementing download count")
		return 0, fmt.Errorf("error incrementing download count: %w", err)
	}
	return count, nil
}

// Delete removes a note; likes and comments cascade
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "notes", id, apperrors.ErrNoteNotFound)
}

// ListExpiredRejected returns rejected notes whose rejection is at or before
// cutoff, oldest first, with the names the archive keeps.
func (r *NoteRepository) ListExpiredRejected(ctx context.Context, cutoff time.Time) ([]*models.ExpiredNote, error) {
	sql, args, err := r.selectNotes("COALESCE(s.name, '') AS subject_name").
		LeftJoin("subjects s ON s.id = n.subject_id").
		Where(squirrel.Eq{"n.is_rejected": true}).
		Where(squirrel.LtOrEq{"n.rejected_at": cutoff}).
		OrderBy("n.rejected_at ASC", "n.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build expired notes query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing expired rejected notes")
		return nil, fmt.Errorf("error listing expired rejected notes: %w", err)
	}
	defer rows.Close()

	expired := []*models.ExpiredNote{}
	for rows.Next() {
		e := &models.ExpiredNote{}
		if err := rows.Scan(append(noteScanTargets(&e.Note), &e.SubjectName)...); err != nil {
			return nil, fmt.Errorf("error scanning expired note row: %w", err)
		}
		expired = append(expired, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired note rows: %w", err)
	}
	return expired, nil
}

// ArchiveExpired deletes an expired rejected note and writes its archive row in
// one transaction. The delete is guarded on the note still being rejected at
// or before cutoff, otherwise ErrNoteNotRejected is returned and nothing changes.
// beforeCommit runs inside the transaction after both statements; an error from
// it rolls everything back.
func (r *NoteRepository) ArchiveExpired(ctx context.Context, archive *models.RejectedNote, cutoff time.Time, beforeCommit func(ctx context.Context) error) error {
	return r.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"DELETE FROM notes WHERE id = $1 AND is_rejected AND rejected_at <= $2",
			archive.OriginalNoteID, cutoff)
		if err != nil {
			logger.Error().Err(err).Str("noteID", archive.OriginalNoteID).Msg("Error deleting expired note")
			return fmt.Errorf("error deleting expired note: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrNoteNotRejected
		}

		if err := insertArchive(ctx, tx, archive); err != nil {
			return err
		}

		if beforeCommit != nil {
			return beforeCommit(ctx)
		}
		return nil
	})
}

// NoteCounts is the number of notes per moderation state
type NoteCounts struct {
	Public   int64
	Pending  int64
	Rejected int64
}

// CountByState counts notes per moderation state in one scan
func (r *NoteRepository) CountByState(ctx context.Context) (*NoteCounts, error) {
	c := &NoteCounts{}
	err := r.db.QueryRow(ctx, `SELECT
		COUNT(*) FILTER (WHERE is_public AND NOT is_rejected),
		COUNT(*) FILTER (WHERE NOT is_public AND NOT is_rejected),
		COUNT(*) FILTER (WHERE is_rejected)
	FROM notes`).Scan(&c.Public, &c.Pending, &c.Rejected)
	if err != nil {
		logger.Error().Err(err).Msg("Error counting notes by state")
		return nil, fmt.Errorf("error counting notes by state: %w", err)
	}
	return c, nil
}

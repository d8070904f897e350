package repositories

import (
	"context"
	"fmt"

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

// CommentRepository handles comment database operations
type CommentRepository struct {
	db db.DBTX
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(q db.DBTX) *CommentRepository {
	return &CommentRepository{db: q}
}

func selectComments() squirrel.SelectBuilder {
	return psql.Select(
		"c.id", "c.content", "c.user_clerk_id", "c.note_id", "c.notice_id", "c.created_at", "c.updated_at",
		"COALESCE(u.name, '')", "u.image_url",
	).
		From("comments c").
		LeftJoin("users u ON u.clerk_id = c.user_clerk_id")
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	c := &models.Comment{}
	err := row.Scan(&c.ID, &c.Content, &c.UserClerkID, &c.NoteID, &c.NoticeID, &c.CreatedAt, &c.UpdatedAt,
		&c.AuthorName, &c.AuthorImageURL)
	return c, err
}

// Create attaches a comment to a note or a notice
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment, kind models.TargetKind, targetID string) error {
	column, err := targetColumn(kind)
	if err != nil {
		return err
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	sql, args, err := psql.Insert("comments").
		Columns("id", "content", "user_clerk_id", column).
		Values(comment.ID, comment.Content, comment.UserClerkID, targetID).
		Suffix("RETURNING note_id, notice_id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create comment query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&comment.NoteID, &comment.NoticeID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewResourceNotFoundError(string(kind) + " not found")
		}
		logger.Error().Err(err).Str("target", string(kind)).Str("targetID", targetID).Msg("Error creating comment")
		return fmt.Errorf("error creating comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	sql, args, err := selectComments().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get comment query: %w", err)
	}

	c, err := scanComment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrCommentNotFound
		}
		logger.Error().Err(err).Str("commentID", id).Msg("Error getting comment")
		return nil, fmt.Errorf("error getting comment: %w", err)
	}
	return c, nil
}

// ListByTarget returns a page of comments on a target, oldest first
func (r *CommentRepository) ListByTarget(ctx context.Context, kind models.TargetKind, targetID string, page, size int) ([]*models.Comment, int64, error) {
	column, err := targetColumn(kind)
	if err != nil {
		return nil, 0, err
	}

	total, err := countRows(ctx, r.db, psql.Select("COUNT(*)").From("comments").Where(squirrel.Eq{column: targetID}))
	if err != nil {
		logger.Error().Err(err).Msg("Error counting comments")
		return nil, 0, fmt.Errorf("error counting comments: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sql, args, err := selectComments().
		Where(squirrel.Eq{"c." + column: targetID}).
		OrderBy("c.created_at ASC", "c.id").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list comments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing comments")
		return nil, 0, fmt.Errorf("error listing comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating comment rows: %w", err)
	}
	return comments, total, nil
}

// Delete removes a comment
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "comments", id, apperrors.ErrCommentNotFound)
}

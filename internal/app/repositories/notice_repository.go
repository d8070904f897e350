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
	"github.com/notesphere/notesphere/internal/pkg/helpers"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// NoticeRepository handles notice database operations
type NoticeRepository struct {
	db db.DBTX
}

// NewNoticeRepository creates a new NoticeRepository
func NewNoticeRepository(q db.DBTX) *NoticeRepository {
	return &NoticeRepository{db: q}
}

func selectNotices() squirrel.SelectBuilder {
	return psql.Select(
		"n.id", "n.title", "n.content", "n.is_published", "n.author_clerk_id", "n.created_at", "n.updated_at",
		"(SELECT COUNT(*) FROM likes l WHERE l.notice_id = n.id)",
	).From("notices n")
}

func scanNotice(row pgx.Row) (*models.Notice, error) {
	n := &models.Notice{}
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.IsPublished, &n.AuthorClerkID, &n.CreatedAt, &n.UpdatedAt, &n.LikeCount)
	return n, err
}

// Create inserts a notice
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) error {
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}

	sql, args, err := psql.Insert("notices").
		Columns("id", "title", "content", "is_published", "author_clerk_id").
		Values(notice.ID, notice.Title, notice.Content, notice.IsPublished, notice.AuthorClerkID).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create notice query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&notice.CreatedAt, &notice.UpdatedAt); err != nil {
		logger.Error().Err(err).Msg("Error creating notice")
		return fmt.Errorf("error creating notice: %w", err)
	}
	return nil
}

// Update rewrites title, content and visibility
func (r *NoticeRepository) Update(ctx context.Context, notice *models.Notice) error {
	sql, args, err := psql.Update("notices").
		SetMap(map[string]interface{}{
			"title":        notice.Title,
			"content":      notice.Content,
			"is_published": notice.IsPublished,
			"updated_at":   squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": notice.ID}).
		Suffix("RETURNING author_clerk_id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update notice query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&notice.AuthorClerkID, &notice.CreatedAt, &notice.UpdatedAt); err != nil {
		if isNoRows(err) {
			return apperrors.ErrNoticeNotFound
		}
		logger.Error().Err(err).Str("noticeID", notice.ID).Msg("Error updating notice")
		return fmt.Errorf("error updating notice: %w", err)
	}
	return nil
}

// SetPublished changes only the visibility flag
func (r *NoticeRepository) SetPublished(ctx context.Context, id string, published bool) error {
	sql, args, err := psql.Update("notices").
		Set("is_published", published).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build publish notice query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("noticeID", id).Msg("Error publishing notice")
		return fmt.Errorf("error publishing notice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNoticeNotFound
	}
	return nil
}

// GetByID retrieves a notice
func (r *NoticeRepository) GetByID(ctx context.Context, id string) (*models.Notice, error) {
	sql, args, err := selectNotices().Where(squirrel.Eq{"n.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get notice query: %w", err)
	}

	n, err := scanNotice(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrNoticeNotFound
		}
		logger.Error().Err(err).Str("noticeID", id).Msg("Error getting notice")
		return nil, fmt.Errorf("error getting notice: %w", err)
	}
	return n, nil
}

// List returns a page of notices, newest first. publishedOnly hides drafts.
func (r *NoticeRepository) List(ctx context.Context, publishedOnly bool, page, size int) ([]*models.Notice, int64, error) {
	count := psql.Select("COUNT(*)").From("notices n")
	query := selectNotices()
	if publishedOnly {
		count = count.Where(squirrel.Eq{"n.is_published": true})
		query = query.Where(squirrel.Eq{"n.is_published": true})
	}

	total, err := countRows(ctx, r.db, count)
	if err != nil {
		logger.Error().Err(err).Msg("Error counting notices")
		return nil, 0, fmt.Errorf("error counting notices: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sql, args, err := query.OrderBy("n.created_at DESC", "n.id").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list notices query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing notices")
		return nil, 0, fmt.Errorf("error listing notices: %w", err)
	}
	defer rows.Close()

	notices := []*models.Notice{}
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning notice row: %w", err)
		}
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notice rows: %w", err)
	}
	return notices, total, nil
}

// Delete removes a notice; likes and comments cascade
func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "notices", id, apperrors.ErrNoticeNotFound)
}

// Count returns the number of notices
func (r *NoticeRepository) Count(ctx context.Context) (int64, error) {
	total, err := countRows(ctx, r.db, psql.Select("COUNT(*)").From("notices"))
	if err != nil {
		return 0, fmt.Errorf("error counting notices: %w", err)
	}
	return total, nil
}

package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/db"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/helpers"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// FeedbackRepository handles feedback database operations
type FeedbackRepository struct {
	db db.DBTX
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(q db.DBTX) *FeedbackRepository {
	return &FeedbackRepository{db: q}
}

// Create stores a feedback message
func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Category == "" {
		f.Category = models.FeedbackOther
	}

	sql, args, err := psql.Insert("feedback").
		Columns("id", "user_clerk_id", "message", "category").
		Values(f.ID, f.UserClerkID, f.Message, f.Category).
		Suffix("RETURNING is_resolved, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create feedback query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&f.IsResolved, &f.CreatedAt); err != nil {
		logger.Error().Err(err).Str("clerkID", f.UserClerkID).Msg("Error creating feedback")
		return fmt.Errorf("error creating feedback: %w", err)
	}
	return nil
}

// List returns a page of feedback, unresolved first then newest
func (r *FeedbackRepository) List(ctx context.Context, page, size int) ([]*models.Feedback, int64, error) {
	total, err := countRows(ctx, r.db, psql.Select("COUNT(*)").From("feedback"))
	if err != nil {
		logger.Error().Err(err).Msg("Error counting feedback")
		return nil, 0, fmt.Errorf("error counting feedback: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sql, args, err := psql.Select("id", "user_clerk_id", "message", "category", "is_resolved", "created_at").
		From("feedback").
		OrderBy("is_resolved ASC", "created_at DESC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list feedback query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing feedback")
		return nil, 0, fmt.Errorf("error listing feedback: %w", err)
	}
	defer rows.Close()

	items := []*models.Feedback{}
	for rows.Next() {
		f := &models.Feedback{}
		if err := rows.Scan(&f.ID, &f.UserClerkID, &f.Message, &f.Category, &f.IsResolved, &f.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning feedback row: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating feedback rows: %w", err)
	}
	return items, total, nil
}

// Resolve marks a feedback item as handled
func (r *FeedbackRepository) Resolve(ctx context.Context, id string) error {
	sql, args, err := psql.Update("feedback").
		Set("is_resolved", true).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build resolve feedback query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("feedbackID", id).Msg("Error resolving feedback")
		return fmt.Errorf("error resolving feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrFeedbackNotFound
	}
	return nil
}

// CountOpen returns the number of unresolved feedback items
func (r *FeedbackRepository) CountOpen(ctx context.Context) (int64, error) {
	total, err := countRows(ctx, r.db, psql.Select("COUNT(*)").From("feedback").Where(squirrel.Eq{"is_resolved": false}))
	if err != nil {
		return 0, fmt.Errorf("error counting open feedback: %w", err)
	}
	return total, nil
}

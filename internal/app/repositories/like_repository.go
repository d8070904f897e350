package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/db"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/dberrors"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// targetColumn maps a like/comment target to its foreign-key column
func targetColumn(kind models.TargetKind) (string, error) {
	switch kind {
	case models.TargetNote:
		return "note_id", nil
	case models.TargetNotice:
		return "notice_id", nil
	}
	return "", apperrors.NewBadRequestError(fmt.Sprintf("unknown target kind %q", kind))
}

// LikeRepository handles like database operations
type LikeRepository struct {
	db db.DBTX
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(q db.DBTX) *LikeRepository {
	return &LikeRepository{db: q}
}

// toggleLikeSQL removes the user's like if present, otherwise inserts it, in a
// single statement. The count subquery reads the pre-statement snapshot, so it
// is corrected by the direction of the toggle. When a concurrent toggle wins
// the insert the conflict is ignored and the result still reports liked.
const toggleLikeSQL = `
WITH removed AS (
	DELETE FROM likes WHERE user_clerk_id = $1 AND %[1]s = $2
	RETURNING id
), added AS (
	INSERT INTO likes (id, user_clerk_id, %[1]s)
	SELECT $3, $1, $2
	WHERE NOT EXISTS (SELECT 1 FROM removed)
	ON CONFLICT (user_clerk_id, %[1]s) WHERE %[1]s IS NOT NULL DO NOTHING
	RETURNING id
)
SELECT
	EXISTS (SELECT 1 FROM removed) AS unliked,
	(SELECT COUNT(*) FROM likes WHERE %[1]s = $2)
		+ CASE WHEN EXISTS (SELECT 1 FROM removed) THEN -1 ELSE 1 END AS like_count`

// Toggle flips the user's like on a target and returns the new state and count
func (r *LikeRepository) Toggle(ctx context.Context, userClerkID string, kind models.TargetKind, targetID string) (*models.LikeResult, error) {
	column, err := targetColumn(kind)
	if err != nil {
		return nil, err
	}

	var (
		unliked bool
		count   int
	)
	err = r.db.QueryRow(ctx, fmt.Sprintf(toggleLikeSQL, column), userClerkID, targetID, uuid.NewString()).
		Scan(&unliked, &count)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return nil, apperrors.NewResourceNotFoundError(string(kind) + " not found")
		}
		logger.Error().Err(err).Str("target", string(kind)).Str("targetID", targetID).Msg("Error toggling like")
		return nil, fmt.Errorf("error toggling like: %w", err)
	}

	result := &models.LikeResult{Action: models.LikeActionLiked, Count: count}
	if unliked {
		result.Action = models.LikeActionUnliked
	}
	if result.Count < 0 {
		result.Count = 0
	}
	return result, nil
}

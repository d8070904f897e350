package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/db"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// UserAuthRepository stores per-user storage-provider OAuth tokens
type UserAuthRepository struct {
	db db.DBTX
}

// NewUserAuthRepository creates a new UserAuthRepository
func NewUserAuthRepository(q db.DBTX) *UserAuthRepository {
	return &UserAuthRepository{db: q}
}

// Get returns the stored token for a user or ErrDriveNotConnected
func (r *UserAuthRepository) Get(ctx context.Context, clerkID string) (*models.UserAuth, error) {
	sql, args, err := psql.Select("user_clerk_id", "access_token", "refresh_token", "token_type", "expiry", "updated_at").
		From("user_auth").
		Where(squirrel.Eq{"user_clerk_id": clerkID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user auth query: %w", err)
	}

	ua := &models.UserAuth{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&ua.UserClerkID, &ua.AccessToken, &ua.RefreshToken, &ua.TokenType, &ua.Expiry, &ua.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrDriveNotConnected
		}
		logger.Error().Err(err).Str("clerkID", clerkID).Msg("Error getting user auth")
		return nil, fmt.Errorf("error getting user auth: %w", err)
	}
	return ua, nil
}

// Save inserts or replaces a user's token. An empty refresh token keeps the
// previously stored one, since providers only send it on first consent.
func (r *UserAuthRepository) Save(ctx context.Context, ua *models.UserAuth) error {
	sql, args, err := psql.Insert("user_auth").
		Columns("user_clerk_id", "access_token", "refresh_token", "token_type", "expiry").
		Values(ua.UserClerkID, ua.AccessToken, ua.RefreshToken, ua.TokenType, ua.Expiry).
		Suffix(`ON CONFLICT (user_clerk_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), user_auth.refresh_token),
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save user auth query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("clerkID", ua.UserClerkID).Msg("Error saving user auth")
		return fmt.Errorf("error saving user auth: %w", err)
	}
	return nil
}

// Delete removes a user's token
func (r *UserAuthRepository) Delete(ctx context.Context, clerkID string) error {
	sql, args, err := psql.Delete("user_auth").Where(squirrel.Eq{"user_clerk_id": clerkID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete user auth query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("clerkID", clerkID).Msg("Error deleting user auth")
		return fmt.Errorf("error deleting user auth: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDriveNotConnected
	}
	return nil
}

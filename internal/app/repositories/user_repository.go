package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/db"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/helpers"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

var userColumns = []string{"clerk_id", "email", "name", "image_url", "role", "created_at", "updated_at"}

// UserRepository handles user database operations
type UserRepository struct {
	db db.DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(q db.DBTX) *UserRepository {
	return &UserRepository{db: q}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ClerkID, &u.Email, &u.Name, &u.ImageURL, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Upsert creates the user on first sight and refreshes the profile fields
// afterwards. The stored role is never overwritten here.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	sql, args, err := psql.Insert("users").
		Columns("clerk_id", "email", "name", "image_url", "role").
		Values(user.ClerkID, user.Email, user.Name, user.ImageURL, user.Role).
		Suffix(`ON CONFLICT (clerk_id) DO UPDATE SET
			email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			image_url = COALESCE(EXCLUDED.image_url, users.image_url),
			updated_at = NOW()
		RETURNING ` + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building upsert user SQL")
		return nil, fmt.Errorf("failed to build upsert user query: %w", err)
	}

	saved, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Str("clerkID", user.ClerkID).Msg("Error upserting user")
		return nil, fmt.Errorf("error upserting user: %w", err)
	}
	return saved, nil
}

// GetByClerkID retrieves a user by identity-provider id
func (r *UserRepository) GetByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	sql, args, err := psql.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"clerk_id": clerkID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("clerkID", clerkID).Msg("Error getting user")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// List returns a page of users ordered by creation time
func (r *UserRepository) List(ctx context.Context, page, size int) ([]*models.User, int64, error) {
	total, err := countRows(ctx, r.db, psql.Select("COUNT(*)").From("users"))
	if err != nil {
		logger.Error().Err(err).Msg("Error counting users")
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sql, args, err := psql.Select(userColumns...).
		From("users").
		OrderBy("created_at DESC", "clerk_id").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing users")
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, total, nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, clerkID string, role models.RoleType) (*models.User, error) {
	sql, args, err := psql.Update("users").
		Set("role", role).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"clerk_id": clerkID}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update role query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("clerkID", clerkID).Msg("Error updating user role")
		return nil, fmt.Errorf("error updating user role: %w", err)
	}
	return user, nil
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	total, err := countRows(ctx, r.db, psql.Select("COUNT(*)").From("users"))
	if err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return total, nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/notesphere/notesphere/internal/app/auth"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/cache"
	"github.com/notesphere/notesphere/internal/pkg/helpers"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// UserService mirrors identity-provider users and manages roles
type UserService interface {
	Sync(ctx context.Context, identity *models.User) (*models.User, error)
	Get(ctx context.Context, clerkID string) (*models.User, error)
	List(ctx context.Context, admin *models.User, page, size int) ([]*models.User, int64, error)
	UpdateRole(ctx context.Context, admin *models.User, clerkID string, role models.RoleType) (*models.User, error)
}

// userServiceImpl implements the UserService interface
type userServiceImpl struct {
	users       UserStore
	cache       *cache.LRU[*models.User]
	bootstrapID string
}

// NewUserService creates a new user service instance. users seen recently are
// served from c without touching the database; c may be nil. The account whose
// id equals bootstrapID is promoted to admin on sync.
func NewUserService(users UserStore, c *cache.LRU[*models.User], bootstrapID string) UserService {
	return &userServiceImpl{
		users:       users,
		cache:       c,
		bootstrapID: bootstrapID,
	}
}

func sameProfile(a, b *models.User) bool {
	return a.Email == b.Email && a.Name == b.Name && helpers.StringValue(a.ImageURL) == helpers.StringValue(b.ImageURL)
}

// Sync upserts the user described by the token claims and returns the stored row
func (s *userServiceImpl) Sync(ctx context.Context, identity *models.User) (*models.User, error) {
	if identity == nil || identity.ClerkID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(identity.ClerkID); ok && sameProfile(cached, identity) {
			return cached, nil
		}
	}

	user, err := s.users.Upsert(ctx, &models.User{
		ClerkID:  identity.ClerkID,
		Email:    identity.Email,
		Name:     identity.Name,
		ImageURL: identity.ImageURL,
		Role:     models.RoleUser,
	})
	if err != nil {
		return nil, fmt.Errorf("error syncing user: %w", err)
	}

	if s.bootstrapID != "" && user.ClerkID == s.bootstrapID && user.Role != models.RoleAdmin {
		user, err = s.users.UpdateRole(ctx, user.ClerkID, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("error promoting bootstrap admin: %w", err)
		}
		logger.Info().Str("clerkID", user.ClerkID).Msg("Bootstrap admin promoted")
	}

	if s.cache != nil {
		s.cache.Set(user.ClerkID, user)
	}
	return user, nil
}

// Get retrieves a user by identity-provider id
func (s *userServiceImpl) Get(ctx context.Context, clerkID string) (*models.User, error) {
	user, err := s.users.GetByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return user, nil
}

// List returns a page of users
func (s *userServiceImpl) List(ctx context.Context, admin *models.User, page, size int) ([]*models.User, int64, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, 0, err
	}
	users, total, err := s.users.List(ctx, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	return users, total, nil
}

// UpdateRole changes a user's role. Admins cannot demote themselves.
func (s *userServiceImpl) UpdateRole(ctx context.Context, admin *models.User, clerkID string, role models.RoleType) (*models.User, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("role", "role must be USER or ADMIN")
	}
	if admin.ClerkID == clerkID && role != models.RoleAdmin {
		return nil, apperrors.NewBadRequestError("admins cannot remove their own admin role")
	}

	user, err := s.users.UpdateRole(ctx, clerkID, role)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error updating role: %w", err)
	}

	if s.cache != nil {
		s.cache.Delete(clerkID)
	}
	logger.Info().Str("clerkID", clerkID).Str("role", string(role)).Str("adminID", admin.ClerkID).Msg("User role updated")
	return user, nil
}

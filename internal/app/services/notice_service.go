package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/notesphere/notesphere/internal/app/auth"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// NoticeService defines announcement operations
type NoticeService interface {
	Create(ctx context.Context, admin *models.User, notice *models.Notice) (*models.Notice, error)
	Update(ctx context.Context, admin *models.User, notice *models.Notice) (*models.Notice, error)
	SetPublished(ctx context.Context, admin *models.User, id string, published bool) (*models.Notice, error)
	Get(ctx context.Context, viewer *models.User, id string) (*models.Notice, error)
	List(ctx context.Context, viewer *models.User, includeDrafts bool, page, size int) ([]*models.Notice, int64, error)
	Delete(ctx context.Context, admin *models.User, id string) error
}

// noticeServiceImpl implements the NoticeService interface
type noticeServiceImpl struct {
	notices NoticeStore
}

// NewNoticeService creates a new notice service instance
func NewNoticeService(notices NoticeStore) NoticeService {
	return &noticeServiceImpl{notices: notices}
}

func validateNotice(notice *models.Notice) error {
	notice.Title = strings.TrimSpace(notice.Title)
	notice.Content = strings.TrimSpace(notice.Content)
	if notice.Title == "" {
		return apperrors.NewValidationError("title", "title cannot be empty")
	}
	if notice.Content == "" {
		return apperrors.NewValidationError("content", "content cannot be empty")
	}
	return nil
}

// Create publishes or drafts a new notice
func (s *noticeServiceImpl) Create(ctx context.Context, admin *models.User, notice *models.Notice) (*models.Notice, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, err
	}
	if err := validateNotice(notice); err != nil {
		return nil, err
	}

	notice.ID = uuid.NewString()
	notice.AuthorClerkID = admin.ClerkID
	if err := s.notices.Create(ctx, notice); err != nil {
		return nil, fmt.Errorf("error creating notice: %w", err)
	}

	logger.Info().Str("noticeID", notice.ID).Bool("published", notice.IsPublished).Msg("Notice created")
	return notice, nil
}

// Update rewrites a notice's title, content and visibility
func (s *noticeServiceImpl) Update(ctx context.Context, admin *models.User, notice *models.Notice) (*models.Notice, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, err
	}
	if err := validateNotice(notice); err != nil {
		return nil, err
	}

	if err := s.notices.Update(ctx, notice); err != nil {
		if errors.Is(err, apperrors.ErrNoticeNotFound) {
			return nil, apperrors.ErrNoticeNotFound
		}
		return nil, fmt.Errorf("error updating notice: %w", err)
	}
	return s.notices.GetByID(ctx, notice.ID)
}

// SetPublished shows or hides a notice
func (s *noticeServiceImpl) SetPublished(ctx context.Context, admin *models.User, id string, published bool) (*models.Notice, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, err
	}

	if err := s.notices.SetPublished(ctx, id, published); err != nil {
		if errors.Is(err, apperrors.ErrNoticeNotFound) {
			return nil, apperrors.ErrNoticeNotFound
		}
		return nil, fmt.Errorf("error publishing notice: %w", err)
	}
	return s.notices.GetByID(ctx, id)
}

// Get returns a notice; drafts are only visible to admins
func (s *noticeServiceImpl) Get(ctx context.Context, viewer *models.User, id string) (*models.Notice, error) {
	notice, err := s.notices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoticeNotFound) {
			return nil, apperrors.ErrNoticeNotFound
		}
		return nil, fmt.Errorf("error retrieving notice: %w", err)
	}
	if !auth.CanViewNotice(viewer, notice) {
		return nil, apperrors.ErrNoticeNotFound
	}
	return notice, nil
}

// List returns published notices, or all of them for admins asking for drafts
func (s *noticeServiceImpl) List(ctx context.Context, viewer *models.User, includeDrafts bool, page, size int) ([]*models.Notice, int64, error) {
	if includeDrafts {
		if err := auth.ValidateAdmin(viewer); err != nil {
			return nil, 0, err
		}
	}

	notices, total, err := s.notices.List(ctx, !includeDrafts, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing notices: %w", err)
	}
	return notices, total, nil
}

// Delete removes a notice with its likes and comments
func (s *noticeServiceImpl) Delete(ctx context.Context, admin *models.User, id string) error {
	if err := auth.ValidateAdmin(admin); err != nil {
		return err
	}
	if err := s.notices.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNoticeNotFound) {
			return apperrors.ErrNoticeNotFound
		}
		return fmt.Errorf("error deleting notice: %w", err)
	}
	return nil
}

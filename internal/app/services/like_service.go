package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/notesphere/notesphere/internal/app/auth"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
)

// LikeService toggles likes on notes and notices
type LikeService interface {
	Toggle(ctx context.Context, user *models.User, kind models.TargetKind, targetID string) (*models.LikeResult, error)
}

// targets resolves like and comment targets
type targets struct {
	notes   NoteStore
	notices NoticeStore
}

// likeServiceImpl implements the LikeService interface
type likeServiceImpl struct {
	targets
	likes   LikeStore
	limiter RateLimiter
}

// NewLikeService creates a new like service instance. limiter may be nil.
func NewLikeService(likes LikeStore, notes NoteStore, notices NoticeStore, limiter RateLimiter) LikeService {
	return &likeServiceImpl{
		targets: targets{notes: notes, notices: notices},
		likes:   likes,
		limiter: limiter,
	}
}

// visible checks the target exists and the user may see it
func (s targets) visible(ctx context.Context, user *models.User, kind models.TargetKind, targetID string) error {
	switch kind {
	case models.TargetNote:
		note, err := s.notes.GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNoteNotFound) {
				return apperrors.ErrNoteNotFound
			}
			return fmt.Errorf("error retrieving note: %w", err)
		}
		if !auth.CanViewNote(user, note) {
			return apperrors.ErrNoteNotFound
		}
	case models.TargetNotice:
		notice, err := s.notices.GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNoticeNotFound) {
				return apperrors.ErrNoticeNotFound
			}
			return fmt.Errorf("error retrieving notice: %w", err)
		}
		if !auth.CanViewNotice(user, notice) {
			return apperrors.ErrNoticeNotFound
		}
	default:
		return fmt.Errorf("%w: unknown like target %q", apperrors.ErrValidationFailed, kind)
	}
	return nil
}

// Toggle likes the target if the user has not liked it yet, otherwise
// removes the like. The count is the target's total after the toggle.
func (s *likeServiceImpl) Toggle(ctx context.Context, user *models.User, kind models.TargetKind, targetID string) (*models.LikeResult, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, "likes:"+user.ClerkID) {
		return nil, apperrors.ErrTooManyRequests
	}
	if err := s.visible(ctx, user, kind, targetID); err != nil {
		return nil, err
	}

	result, err := s.likes.Toggle(ctx, user.ClerkID, kind, targetID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrNoteNotFound, apperrors.ErrNoticeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error toggling like: %w", err)
	}
	return result, nil
}

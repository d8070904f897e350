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
)

// CommentService defines comment operations on notes and notices
type CommentService interface {
	Create(ctx context.Context, user *models.User, kind models.TargetKind, targetID, content string) (*models.Comment, error)
	List(ctx context.Context, viewer *models.User, kind models.TargetKind, targetID string, page, size int) ([]*models.Comment, int64, error)
	Delete(ctx context.Context, user *models.User, id string) error
}

// commentServiceImpl implements the CommentService interface
type commentServiceImpl struct {
	targets
	comments CommentStore
}

// NewCommentService creates a new comment service instance
func NewCommentService(comments CommentStore, notes NoteStore, notices NoticeStore) CommentService {
	return &commentServiceImpl{
		targets:  targets{notes: notes, notices: notices},
		comments: comments,
	}
}

// Create adds a comment to a target the user can see
func (s *commentServiceImpl) Create(ctx context.Context, user *models.User, kind models.TargetKind, targetID, content string) (*models.Comment, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content", "comment cannot be empty")
	}
	if err := s.visible(ctx, user, kind, targetID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:          uuid.NewString(),
		Content:     content,
		UserClerkID: user.ClerkID,
		AuthorName:  user.Name,
	}
	if err := s.comments.Create(ctx, comment, kind, targetID); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating comment: %w", err)
	}
	comment.AuthorImageURL = user.ImageURL
	return comment, nil
}

// List returns a page of comments on a target the viewer can see
func (s *commentServiceImpl) List(ctx context.Context, viewer *models.User, kind models.TargetKind, targetID string, page, size int) ([]*models.Comment, int64, error) {
	if err := s.visible(ctx, viewer, kind, targetID); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.comments.ListByTarget(ctx, kind, targetID, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing comments: %w", err)
	}
	return comments, total, nil
}

// Delete removes a comment written by the user (any comment for admins)
func (s *commentServiceImpl) Delete(ctx context.Context, user *models.User, id string) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrCommentNotFound) {
			return apperrors.ErrCommentNotFound
		}
		return fmt.Errorf("error retrieving comment: %w", err)
	}
	if err := auth.ValidateOwnerOrAdmin(user, comment.UserClerkID); err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrCommentNotFound) {
			return apperrors.ErrCommentNotFound
		}
		return fmt.Errorf("error deleting comment: %w", err)
	}
	return nil
}

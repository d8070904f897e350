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

// FeedbackService collects user feedback for the admins
type FeedbackService interface {
	Submit(ctx context.Context, user *models.User, message string, category models.FeedbackCategory) (*models.Feedback, error)
	List(ctx context.Context, admin *models.User, page, size int) ([]*models.Feedback, int64, error)
	Resolve(ctx context.Context, admin *models.User, id string) error
}

type feedbackServiceImpl struct {
	feedback FeedbackStore
}

// NewFeedbackService creates a new feedback service instance
func NewFeedbackService(feedback FeedbackStore) FeedbackService {
	return &feedbackServiceImpl{feedback: feedback}
}

func (s *feedbackServiceImpl) Submit(ctx context.Context, user *models.User, message string, category models.FeedbackCategory) (*models.Feedback, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message", "message cannot be empty")
	}
	if category == "" {
		category = models.FeedbackOther
	}
	if !category.Valid() {
		return nil, apperrors.NewValidationError("category", "unknown feedback category")
	}

	f := &models.Feedback{
		ID:          uuid.NewString(),
		UserClerkID: user.ClerkID,
		Message:     message,
		Category:    category,
	}
	if err := s.feedback.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("error saving feedback: %w", err)
	}
	return f, nil
}

func (s *feedbackServiceImpl) List(ctx context.Context, admin *models.User, page, size int) ([]*models.Feedback, int64, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, 0, err
	}
	items, total, err := s.feedback.List(ctx, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing feedback: %w", err)
	}
	return items, total, nil
}

func (s *feedbackServiceImpl) Resolve(ctx context.Context, admin *models.User, id string) error {
	if err := auth.ValidateAdmin(admin); err != nil {
		return err
	}
	if err := s.feedback.Resolve(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrFeedbackNotFound) {
			return apperrors.ErrFeedbackNotFound
		}
		return fmt.Errorf("error resolving feedback: %w", err)
	}
	return nil
}

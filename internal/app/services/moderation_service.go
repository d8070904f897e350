package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notesphere/notesphere/internal/app/auth"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/repositories"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// ModerationService defines the admin moderation workflow
type ModerationService interface {
	Approve(ctx context.Context, admin *models.User, noteID string) (*models.Note, error)
	Reject(ctx context.Context, admin *models.User, noteID string) (*models.Note, error)
	Unreject(ctx context.Context, admin *models.User, noteID string, action models.ModerationAction) (*models.Note, error)
	ListPending(ctx context.Context, admin *models.User, page, size int) ([]*models.Note, int64, error)
	ListRejected(ctx context.Context, admin *models.User, page, size int) ([]*models.Note, int64, error)
	ListArchive(ctx context.Context, admin *models.User, page, size int) ([]*models.RejectedNote, int64, error)
	RejectedTTL() time.Duration
}

// moderationServiceImpl implements the ModerationService interface
type moderationServiceImpl struct {
	notes       NoteStore
	archive     ArchiveStore
	rejectedTTL time.Duration
	clock       Clock
}

// NewModerationService creates a new moderation service instance
func NewModerationService(notes NoteStore, archive ArchiveStore, rejectedTTL time.Duration, clock Clock) ModerationService {
	return &moderationServiceImpl{
		notes:       notes,
		archive:     archive,
		rejectedTTL: rejectedTTL,
		clock:       clock,
	}
}

// RejectedTTL is how long a rejected note is kept before the sweeper archives it
func (s *moderationServiceImpl) RejectedTTL() time.Duration {
	return s.rejectedTTL
}

// transition loads the note and applies action to it
func (s *moderationServiceImpl) transition(ctx context.Context, admin *models.User, noteID string, action models.ModerationAction) (*models.Note, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, err
	}

	note, err := s.loadNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return s.transitionNote(ctx, admin, note, action)
}

func (s *moderationServiceImpl) loadNote(ctx context.Context, noteID string) (*models.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoteNotFound) {
			return nil, apperrors.ErrNoteNotFound
		}
		return nil, fmt.Errorf("error retrieving note: %w", err)
	}
	return note, nil
}

// transitionNote applies action to an already loaded note and persists it
// guarded on the state it was loaded in.
func (s *moderationServiceImpl) transitionNote(ctx context.Context, admin *models.User, note *models.Note, action models.ModerationAction) (*models.Note, error) {
	from, err := note.Apply(action, s.clock.now())
	if err != nil {
		return nil, apperrors.NewCustomError(err, fmt.Sprintf("cannot %s a %s note", action, from))
	}

	if err := s.notes.UpdateModeration(ctx, note, from); err != nil {
		return nil, err
	}

	logger.Info().
		Str("noteID", note.ID).
		Str("action", string(action)).
		Str("from", string(from)).
		Str("to", string(note.State())).
		Str("adminID", admin.ClerkID).
		Msg("Note moderated")
	return note, nil
}

// Approve publishes a pending note
func (s *moderationServiceImpl) Approve(ctx context.Context, admin *models.User, noteID string) (*models.Note, error) {
	return s.transition(ctx, admin, noteID, models.ActionApprove)
}

// Reject rejects a pending note and starts its expiry clock
func (s *moderationServiceImpl) Reject(ctx context.Context, admin *models.User, noteID string) (*models.Note, error) {
	return s.transition(ctx, admin, noteID, models.ActionReject)
}

// Unreject restores a rejected note to pending or publishes it directly.
// A note that exists but is not rejected is reported as not found.
func (s *moderationServiceImpl) Unreject(ctx context.Context, admin *models.User, noteID string, action models.ModerationAction) (*models.Note, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, err
	}
	if action != models.ActionRestore && action != models.ActionPublish {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidModeration, `action must be "restore" or "publish"`)
	}

	note, err := s.loadNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.State() != models.StateRejected {
		return nil, apperrors.ErrNoteNotRejected
	}

	return s.transitionNote(ctx, admin, note, action)
}

func (s *moderationServiceImpl) listByState(ctx context.Context, admin *models.User, state models.ModerationState, sort repositories.NoteSort, page, size int) ([]*models.Note, int64, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, 0, err
	}

	notes, total, err := s.notes.List(ctx, repositories.NoteFilter{State: state, Sort: sort, Page: page, Size: size})
	if err != nil {
		return nil, 0, fmt.Errorf("error listing %s notes: %w", state, err)
	}
	return notes, total, nil
}

// ListPending lists notes waiting for moderation, oldest first
func (s *moderationServiceImpl) ListPending(ctx context.Context, admin *models.User, page, size int) ([]*models.Note, int64, error) {
	return s.listByState(ctx, admin, models.StatePending, repositories.SortOldest, page, size)
}

// ListRejected lists rejected notes the sweeper has not archived yet
func (s *moderationServiceImpl) ListRejected(ctx context.Context, admin *models.User, page, size int) ([]*models.Note, int64, error) {
	return s.listByState(ctx, admin, models.StateRejected, repositories.SortOldest, page, size)
}

// ListArchive lists the archive rows written by the sweeper
func (s *moderationServiceImpl) ListArchive(ctx context.Context, admin *models.User, page, size int) ([]*models.RejectedNote, int64, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, 0, err
	}

	archived, total, err := s.archive.List(ctx, page, size)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing archived notes: %w", err)
	}
	return archived, total, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/notesphere/notesphere/internal/app/auth"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/repositories"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/filestorage"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// NoteListOptions carries the listing parameters a client may choose
type NoteListOptions struct {
	Query string
	Sort  repositories.NoteSort
	Page  int
	Size  int
}

// NoteService defines the note operations available to regular users
type NoteService interface {
	Create(ctx context.Context, author *models.User, note *models.Note) (*models.Note, error)
	Get(ctx context.Context, viewer *models.User, id string) (*models.Note, error)
	ListBySubject(ctx context.Context, subjectID string, opts NoteListOptions) ([]*models.Note, int64, error)
	ListMine(ctx context.Context, user *models.User, opts NoteListOptions) ([]*models.Note, int64, error)
	Delete(ctx context.Context, user *models.User, id string) error
	DownloadURL(ctx context.Context, viewer *models.User, id string) (string, error)
}

// noteServiceImpl implements the NoteService interface
type noteServiceImpl struct {
	notes    NoteStore
	subjects SubjectStore
	storage  filestorage.Provider
}

// NewNoteService creates a new note service instance. storage may be nil, in
// which case only stored file URLs are downloadable.
func NewNoteService(notes NoteStore, subjects SubjectStore, storage filestorage.Provider) NoteService {
	return &noteServiceImpl{
		notes:    notes,
		subjects: subjects,
		storage:  storage,
	}
}

// Create submits a note for moderation. New notes always start pending.
func (s *noteServiceImpl) Create(ctx context.Context, author *models.User, note *models.Note) (*models.Note, error) {
	if author == nil {
		return nil, apperrors.ErrUnauthorized
	}

	note.Title = strings.TrimSpace(note.Title)
	if note.Title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", apperrors.ErrValidationFailed)
	}
	if !note.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown note type %q", apperrors.ErrValidationFailed, note.Type)
	}
	if note.DriveFileID != nil && strings.TrimSpace(*note.DriveFileID) == "" {
		note.DriveFileID = nil
	}
	if note.FileURL == "" && note.DriveFileID == nil {
		return nil, fmt.Errorf("%w: either fileUrl or driveFileId is required", apperrors.ErrValidationFailed)
	}

	note.ID = uuid.NewString()
	note.AuthorClerkID = author.ClerkID
	note.AuthorName = author.Name
	note.IsPublic = false
	note.IsRejected = false
	note.RejectedAt = nil
	note.DownloadCount = 0

	if err := s.notes.Create(ctx, note); err != nil {
		if errors.Is(err, apperrors.ErrSubjectNotFound) {
			return nil, apperrors.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("error creating note: %w", err)
	}

	logger.Info().Str("noteID", note.ID).Str("authorID", author.ClerkID).Str("subjectID", note.SubjectID).Msg("Note submitted for moderation")
	return note, nil
}

// Get returns a note the viewer is allowed to see. Hidden notes look missing.
func (s *noteServiceImpl) Get(ctx context.Context, viewer *models.User, id string) (*models.Note, error) {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoteNotFound) {
			return nil, apperrors.ErrNoteNotFound
		}
		return nil, fmt.Errorf("error retrieving note: %w", err)
	}
	if !auth.CanViewNote(viewer, note) {
		return nil, apperrors.ErrNoteNotFound
	}
	return note, nil
}

// ListBySubject lists the public notes of an existing subject
func (s *noteServiceImpl) ListBySubject(ctx context.Context, subjectID string, opts NoteListOptions) ([]*models.Note, int64, error) {
	if _, err := s.subjects.GetByID(ctx, subjectID); err != nil {
		if errors.Is(err, apperrors.ErrSubjectNotFound) {
			return nil, 0, apperrors.ErrSubjectNotFound
		}
		return nil, 0, fmt.Errorf("error retrieving subject: %w", err)
	}

	notes, total, err := s.notes.List(ctx, repositories.NoteFilter{
		SubjectID: subjectID,
		State:     models.StatePublic,
		Query:     opts.Query,
		Sort:      opts.Sort,
		Page:      opts.Page,
		Size:      opts.Size,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error listing notes: %w", err)
	}
	return notes, total, nil
}

// ListMine lists every note the user authored, whatever its state
func (s *noteServiceImpl) ListMine(ctx context.Context, user *models.User, opts NoteListOptions) ([]*models.Note, int64, error) {
	if user == nil {
		return nil, 0, apperrors.ErrUnauthorized
	}

	notes, total, err := s.notes.List(ctx, repositories.NoteFilter{
		AuthorClerkID: user.ClerkID,
		Query:         opts.Query,
		Sort:          opts.Sort,
		Page:          opts.Page,
		Size:          opts.Size,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error listing notes: %w", err)
	}
	return notes, total, nil
}

// Delete removes a note owned by the user (or any note for admins). The
// remote file is removed best-effort afterwards.
func (s *noteServiceImpl) Delete(ctx context.Context, user *models.User, id string) error {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoteNotFound) {
			return apperrors.ErrNoteNotFound
		}
		return fmt.Errorf("error retrieving note: %w", err)
	}
	if err := auth.ValidateOwnerOrAdmin(user, note.AuthorClerkID); err != nil {
		return err
	}

	if err := s.notes.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNoteNotFound) {
			return apperrors.ErrNoteNotFound
		}
		return fmt.Errorf("error deleting note: %w", err)
	}

	if note.DriveFileID != nil && s.storage != nil {
		if err := s.storage.DeleteFile(ctx, note.AuthorClerkID, *note.DriveFileID); err != nil {
			logger.Warn().Err(err).Str("noteID", id).Str("fileID", *note.DriveFileID).Msg("Failed to delete remote file of deleted note")
		}
	}

	logger.Info().Str("noteID", id).Str("deletedBy", user.ClerkID).Msg("Note deleted")
	return nil
}

// DownloadURL resolves where the note's file can be fetched and counts the download
func (s *noteServiceImpl) DownloadURL(ctx context.Context, viewer *models.User, id string) (string, error) {
	note, err := s.Get(ctx, viewer, id)
	if err != nil {
		return "", err
	}

	var target string
	switch {
	case note.DriveFileID != nil && s.storage != nil:
		target, err = s.storage.DownloadURL(ctx, *note.DriveFileID)
		if err != nil {
			return "", err
		}
	case note.FileURL != "":
		target = note.FileURL
	default:
		return "", apperrors.ErrNoteNotDownloadable
	}

	if _, err := s.notes.IncrementDownloadCount(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNoteNotFound) {
			return "", apperrors.ErrNoteNotFound
		}
		return "", fmt.Errorf("error counting download: %w", err)
	}
	return target, nil
}

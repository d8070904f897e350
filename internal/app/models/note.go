package models

import (
	"time"

	"github.com/notesphere/notesphere/internal/pkg/apperrors"
)

// ErrInvalidTransition is returned when a moderation action is not allowed
// from the note's current state.
var ErrInvalidTransition = apperrors.ErrInvalidTransition

// ModerationState is derived from the isPublic / isRejected flags
type ModerationState string

const (
	StatePending  ModerationState = "PENDING"
	StatePublic   ModerationState = "PUBLIC"
	StateRejected ModerationState = "REJECTED"
)

// ModerationAction names an admin transition
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
	ActionRestore ModerationAction = "restore"
	ActionPublish ModerationAction = "publish"
)

// Note is a user-submitted academic document with moderation flags
type Note struct {
	ID            string     `json:"id" db:"id"`
	Title         string     `json:"title" db:"title" example:"Algorithms notes week 1"`
	Content       string     `json:"content" db:"content"`
	Type          NoteType   `json:"type" db:"type" example:"PDF"`
	FileURL       string     `json:"fileUrl" db:"file_url"`
	DriveFileID   *string    `json:"driveFileId,omitempty" db:"drive_file_id"`
	DownloadCount int        `json:"downloadCount" db:"download_count"`
	IsPublic      bool       `json:"isPublic" db:"is_public"`
	IsRejected    bool       `json:"isRejected" db:"is_rejected"`
	RejectedAt    *time.Time `json:"rejectedAt,omitempty" db:"rejected_at"`
	AuthorClerkID string     `json:"authorClerkId" db:"author_clerk_id"`
	SubjectID     string     `json:"subjectId" db:"subject_id"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`

	// Read-side enrichments, not columns
	AuthorName string `json:"authorName,omitempty"`
	LikeCount  int    `json:"likeCount"`
}

// State derives the moderation state from the flags
func (n *Note) State() ModerationState {
	switch {
	case n.IsRejected:
		return StateRejected
	case n.IsPublic:
		return StatePublic
	default:
		return StatePending
	}
}

// Apply performs a moderation transition in place. It returns the state the
// note was in so callers can guard the persisted update on it.
func (n *Note) Apply(action ModerationAction, now time.Time) (ModerationState, error) {
	from := n.State()
	switch {
	case action == ActionApprove && from == StatePending:
		n.IsPublic = true
	case action == ActionReject && from == StatePending:
		n.IsRejected = true
		t := now
		n.RejectedAt = &t
	case action == ActionRestore && from == StateRejected:
		n.IsRejected = false
		n.RejectedAt = nil
		n.IsPublic = false
	case action == ActionPublish && from == StateRejected:
		n.IsRejected = false
		n.RejectedAt = nil
		n.IsPublic = true
	default:
		return from, ErrInvalidTransition
	}
	n.UpdatedAt = now
	return from, nil
}

// ExpiredAt reports whether a rejected note is due for archival at cutoff
func (n *Note) ExpiredAt(cutoff time.Time) bool {
	return n.IsRejected && n.RejectedAt != nil && !n.RejectedAt.After(cutoff)
}

// RejectedNote is the immutable archival snapshot written when a rejected note expires
type RejectedNote struct {
	ID             string    `json:"id" db:"id"`
	OriginalNoteID string    `json:"originalNoteId" db:"original_note_id"`
	Title          string    `json:"title" db:"title"`
	AuthorClerkID  string    `json:"authorClerkId" db:"author_clerk_id"`
	AuthorName     string    `json:"authorName" db:"author_name"`
	SubjectID      string    `json:"subjectId" db:"subject_id"`
	SubjectName    string    `json:"subjectName" db:"subject_name"`
	RejectedAt     time.Time `json:"rejectedAt" db:"rejected_at"`
	DeletedAt      time.Time `json:"deletedAt" db:"deleted_at"`
	DriveFileID    *string   `json:"driveFileId,omitempty" db:"drive_file_id"`
}

// ExpiredNote is a rejected note selected by the sweeper together with the
// names the archive row keeps after the source rows are gone.
type ExpiredNote struct {
	Note
	SubjectName string
}

// Archive builds the snapshot for an expired note
func (e *ExpiredNote) Archive(deletedAt time.Time) *RejectedNote {
	rejectedAt := deletedAt
	if e.RejectedAt != nil {
		rejectedAt = *e.RejectedAt
	}
	return &RejectedNote{
		ID:             e.ID,
		OriginalNoteID: e.ID,
		Title:          e.Title,
		AuthorClerkID:  e.AuthorClerkID,
		AuthorName:     e.AuthorName,
		SubjectID:      e.SubjectID,
		SubjectName:    e.SubjectName,
		RejectedAt:     rejectedAt,
		DeletedAt:      deletedAt,
		DriveFileID:    e.DriveFileID,
	}
}

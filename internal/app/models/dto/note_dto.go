package dto

import (
	"time"

	"github.com/notesphere/notesphere/internal/app/models"
)

// CreateNoteRequest represents note submission data. The file itself has
// already been uploaded through an upload session.
type CreateNoteRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=200" example:"Algorithms notes week 1"`
	Content     string `json:"content" binding:"max=5000"`
	Type        string `json:"type" binding:"required,oneof=PDF PPT LECTURE HANDWRITTEN" example:"PDF"`
	FileURL     string `json:"fileUrl" binding:"omitempty,url"`
	DriveFileID string `json:"driveFileId" binding:"omitempty,max=255"`
	SubjectID   string `json:"subjectId" binding:"required,uuid"`
}

// NoteResponse is a note as returned to clients
type NoteResponse struct {
	models.Note
	State     models.ModerationState `json:"state" example:"PENDING"`
	ExpiresAt *time.Time             `json:"expiresAt,omitempty"`
}

// NewNoteResponse decorates a note with its derived moderation fields
func NewNoteResponse(n *models.Note, rejectedTTL time.Duration) NoteResponse {
	resp := NoteResponse{Note: *n, State: n.State()}
	if n.IsRejected && n.RejectedAt != nil {
		expires := n.RejectedAt.Add(rejectedTTL)
		resp.ExpiresAt = &expires
	}
	return resp
}

// NewNoteResponses decorates a list of notes
func NewNoteResponses(notes []*models.Note, rejectedTTL time.Duration) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, NewNoteResponse(n, rejectedTTL))
	}
	return out
}

// NoteListResponse represents a page of notes
type NoteListResponse struct {
	Notes      []NoteResponse `json:"notes"`
	Pagination PaginationInfo `json:"pagination"`
}

// UnrejectRequest restores or publishes a rejected note
type UnrejectRequest struct {
	NoteID string `json:"noteId" binding:"required"`
	Action string `json:"action" binding:"required" example:"restore" enums:"restore,publish"`
}

// SweepResponse reports one run of the rejected-note expiry sweep
type SweepResponse struct {
	Success        bool     `json:"success" example:"true"`
	ProcessedCount int      `json:"processedCount" example:"3"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// LikeToggleResponse reports the outcome of a like toggle
type LikeToggleResponse struct {
	Success bool              `json:"success" example:"true"`
	Action  models.LikeAction `json:"action" example:"liked" enums:"liked,unliked"`
	Count   int               `json:"count" example:"12"`
}

// ArchiveListResponse represents a page of archived rejected notes
type ArchiveListResponse struct {
	Notes      []*models.RejectedNote `json:"notes"`
	Pagination PaginationInfo         `json:"pagination"`
}

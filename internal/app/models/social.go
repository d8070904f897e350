package models

import "time"

// Like joins a user to a note or a notice; exactly one target is set
type Like struct {
	ID          string    `json:"id" db:"id"`
	UserClerkID string    `json:"userClerkId" db:"user_clerk_id"`
	NoteID      *string   `json:"noteId,omitempty" db:"note_id"`
	NoticeID    *string   `json:"noticeId,omitempty" db:"notice_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// LikeResult is the outcome of a like toggle
type LikeResult struct {
	Action LikeAction `json:"action"`
	Count  int        `json:"count"`
}

// Comment is a user remark on a note or a notice
type Comment struct {
	ID          string    `json:"id" db:"id"`
	Content     string    `json:"content" db:"content"`
	UserClerkID string    `json:"userClerkId" db:"user_clerk_id"`
	NoteID      *string   `json:"noteId,omitempty" db:"note_id"`
	NoticeID    *string   `json:"noticeId,omitempty" db:"notice_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	AuthorName     string  `json:"authorName,omitempty"`
	AuthorImageURL *string `json:"authorImageUrl,omitempty"`
}

// Notice is an admin-authored announcement
type Notice struct {
	ID            string    `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Content       string    `json:"content" db:"content"`
	IsPublished   bool      `json:"isPublished" db:"is_published"`
	AuthorClerkID string    `json:"authorClerkId" db:"author_clerk_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`

	LikeCount int `json:"likeCount"`
}

// Feedback is a message sent by a user to the admins
type Feedback struct {
	ID          string           `json:"id" db:"id"`
	UserClerkID string           `json:"userClerkId" db:"user_clerk_id"`
	Message     string           `json:"message" db:"message"`
	Category    FeedbackCategory `json:"category" db:"category"`
	IsResolved  bool             `json:"isResolved" db:"is_resolved"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
}

// UserAuth caches a user's OAuth token for the file-storage provider
type UserAuth struct {
	UserClerkID  string     `json:"-" db:"user_clerk_id"`
	AccessToken  string     `json:"-" db:"access_token"`
	RefreshToken string     `json:"-" db:"refresh_token"`
	TokenType    string     `json:"-" db:"token_type"`
	Expiry       *time.Time `json:"expiry,omitempty" db:"expiry"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Stats is the admin dashboard summary
type Stats struct {
	Users         int64 `json:"users"`
	PublicNotes   int64 `json:"publicNotes"`
	PendingNotes  int64 `json:"pendingNotes"`
	RejectedNotes int64 `json:"rejectedNotes"`
	ArchivedNotes int64 `json:"archivedNotes"`
	Notices       int64 `json:"notices"`
	OpenFeedback  int64 `json:"openFeedback"`
}

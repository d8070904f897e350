// Package services holds the business rules. Each service is an interface
// with an unexported implementation; storage is reached through the narrow
// store interfaces below, which the repositories satisfy.
package services

import (
	"context"
	"time"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/repositories"
)

// UserStore is the user persistence used by services
type UserStore interface {
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*models.User, error)
	List(ctx context.Context, page, size int) ([]*models.User, int64, error)
	UpdateRole(ctx context.Context, clerkID string, role models.RoleType) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// UserAuthStore persists linked storage accounts
type UserAuthStore interface {
	Get(ctx context.Context, clerkID string) (*models.UserAuth, error)
	Save(ctx context.Context, ua *models.UserAuth) error
	Delete(ctx context.Context, clerkID string) error
}

// YearStore persists years
type YearStore interface {
	Create(ctx context.Context, year *models.Year) error
	GetByID(ctx context.Context, id string) (*models.Year, error)
	Tree(ctx context.Context) ([]*models.Year, error)
	Delete(ctx context.Context, id string) error
}

// SemesterStore persists semesters
type SemesterStore interface {
	Create(ctx context.Context, semester *models.Semester) error
	GetByID(ctx context.Context, id string) (*models.Semester, error)
	ListByYear(ctx context.Context, yearID string) ([]*models.Semester, error)
	Delete(ctx context.Context, id string) error
}

// SubjectStore persists subjects
type SubjectStore interface {
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id string) (*models.Subject, error)
	ListBySemester(ctx context.Context, semesterID string) ([]*models.Subject, error)
	Delete(ctx context.Context, id string) error
}

// NoteStore persists notes
type NoteStore interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id string) (*models.Note, error)
	List(ctx context.Context, filter repositories.NoteFilter) ([]*models.Note, int64, error)
	UpdateModeration(ctx context.Context, note *models.Note, from models.ModerationState) error
	IncrementDownloadCount(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
	ListExpiredRejected(ctx context.Context, cutoff time.Time) ([]*models.ExpiredNote, error)
	ArchiveExpired(ctx context.Context, archive *models.RejectedNote, cutoff time.Time, beforeCommit func(ctx context.Context) error) error
	CountByState(ctx context.Context) (*repositories.NoteCounts, error)
}

// ArchiveStore reads archived rejected notes
type ArchiveStore interface {
	List(ctx context.Context, page, size int) ([]*models.RejectedNote, int64, error)
	Count(ctx context.Context) (int64, error)
}

// LikeStore toggles likes
type LikeStore interface {
	Toggle(ctx context.Context, userClerkID string, kind models.TargetKind, targetID string) (*models.LikeResult, error)
}

// CommentStore persists comments
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment, kind models.TargetKind, targetID string) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByTarget(ctx context.Context, kind models.TargetKind, targetID string, page, size int) ([]*models.Comment, int64, error)
	Delete(ctx context.Context, id string) error
}

// NoticeStore persists notices
type NoticeStore interface {
	Create(ctx context.Context, notice *models.Notice) error
	Update(ctx context.Context, notice *models.Notice) error
	SetPublished(ctx context.Context, id string, published bool) error
	GetByID(ctx context.Context, id string) (*models.Notice, error)
	List(ctx context.Context, publishedOnly bool, page, size int) ([]*models.Notice, int64, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// FeedbackStore persists feedback
type FeedbackStore interface {
	Create(ctx context.Context, f *models.Feedback) error
	List(ctx context.Context, page, size int) ([]*models.Feedback, int64, error)
	Resolve(ctx context.Context, id string) error
	CountOpen(ctx context.Context) (int64, error)
}

// RateLimiter admits or rejects an action for a key
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// Clock returns the current time; tests replace it
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

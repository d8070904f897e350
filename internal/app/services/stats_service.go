package services

import (
	"context"
	"fmt"

	"github.com/notesphere/notesphere/internal/app/auth"
	"github.com/notesphere/notesphere/internal/app/models"
	"golang.org/x/sync/errgroup"
)

// StatsService computes the admin dashboard counts
type StatsService interface {
	Get(ctx context.Context, admin *models.User) (*models.Stats, error)
}

type statsServiceImpl struct {
	users    UserStore
	notes    NoteStore
	archive  ArchiveStore
	notices  NoticeStore
	feedback FeedbackStore
}

// NewStatsService creates a new stats service instance
func NewStatsService(users UserStore, notes NoteStore, archive ArchiveStore, notices NoticeStore, feedback FeedbackStore) StatsService {
	return &statsServiceImpl{
		users:    users,
		notes:    notes,
		archive:  archive,
		notices:  notices,
		feedback: feedback,
	}
}

// Get runs the counts concurrently; the first failure cancels the rest
func (s *statsServiceImpl) Get(ctx context.Context, admin *models.User) (*models.Stats, error) {
	if err := auth.ValidateAdmin(admin); err != nil {
		return nil, err
	}

	stats := &models.Stats{}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() (err error) {
		stats.Users, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() error {
		counts, err := s.notes.CountByState(ctx)
		if err != nil {
			return err
		}
		stats.PublicNotes, stats.PendingNotes, stats.RejectedNotes = counts.Public, counts.Pending, counts.Rejected
		return nil
	})
	g.Go(func() (err error) {
		stats.ArchivedNotes, err = s.archive.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Notices, err = s.notices.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OpenFeedback, err = s.feedback.CountOpen(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error computing stats: %w", err)
	}
	return stats, nil
}

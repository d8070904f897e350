package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/filestorage"
	"github.com/notesphere/notesphere/internal/pkg/lock"
	"github.com/notesphere/notesphere/internal/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const sweepLockName = "sweeper:rejected-notes"

// noteCommitBudget is the time left for the archive transaction after the
// remote delete has used its share.
const noteCommitBudget = 20 * time.Second

var (
	sweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesphere_sweeper_runs_total",
		Help: "Rejected-note sweeps by outcome.",
	}, []string{"result"})
	sweepArchivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notesphere_sweeper_archived_notes_total",
		Help: "Rejected notes archived and deleted by the sweeper.",
	})
	sweepFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notesphere_sweeper_note_failures_total",
		Help: "Per-note sweep failures.",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notesphere_sweeper_duration_seconds",
		Help:    "Duration of rejected-note sweeps.",
		Buckets: prometheus.DefBuckets,
	})
)

// SweepResult reports one sweep. Errors are per-note failures; warnings are
// remote deletions that failed after the note was archived.
type SweepResult struct {
	ProcessedCount int      `json:"processedCount"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// SweeperService archives and deletes rejected notes past their retention
type SweeperService interface {
	Sweep(ctx context.Context, now time.Time) (*SweepResult, error)
}

// sweeperServiceImpl implements the SweeperService interface
type sweeperServiceImpl struct {
	notes         NoteStore
	storage       filestorage.Provider
	locker        lock.Locker
	rejectedTTL   time.Duration
	lockTTL       time.Duration
	remoteTimeout time.Duration
}

// NewSweeperService creates a new sweeper service instance. storage may be
// nil, in which case remote files are left in place and reported as warnings.
// remoteTimeout caps each remote delete so a slow provider produces a warning
// instead of failing the archive transaction.
func NewSweeperService(notes NoteStore, storage filestorage.Provider, locker lock.Locker, rejectedTTL, lockTTL, remoteTimeout time.Duration) SweeperService {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	if rejectedTTL <= 0 {
		rejectedTTL = 48 * time.Hour
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	if remoteTimeout <= 0 {
		remoteTimeout = 10 * time.Second
	}
	return &sweeperServiceImpl{
		notes:         notes,
		storage:       storage,
		locker:        locker,
		rejectedTTL:   rejectedTTL,
		lockTTL:       lockTTL,
		remoteTimeout: remoteTimeout,
	}
}

// Sweep archives every note rejected at or before now minus the retention.
// Notes are processed one by one; a failing note is reported and skipped.
func (s *sweeperServiceImpl) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	release, err := s.locker.Acquire(ctx, sweepLockName, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			sweepRunsTotal.WithLabelValues("locked").Inc()
			return nil, apperrors.ErrSweepInProgress
		}
		sweepRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error acquiring sweep lock: %w", err)
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			logger.Warn().Err(err).Msg("Failed to release sweep lock")
		}
	}()

	timer := prometheus.NewTimer(sweepDuration)
	defer timer.ObserveDuration()

	now = now.UTC()
	cutoff := now.Add(-s.rejectedTTL)

	expired, err := s.notes.ListExpiredRejected(ctx, cutoff)
	if err != nil {
		sweepRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error listing expired rejected notes: %w", err)
	}

	result := &SweepResult{Errors: []string{}, Warnings: []string{}}
	for _, note := range expired {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("sweep interrupted: %v", err))
			break
		}

		var warning string
		removeRemote := func(ctx context.Context) error {
			if note.DriveFileID == nil {
				return nil
			}
			if s.storage == nil {
				warning = fmt.Sprintf("note %s: no storage provider configured, remote file %s kept", note.ID, *note.DriveFileID)
				return nil
			}
			remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
			defer cancel()
			if err := s.storage.DeleteFile(remoteCtx, note.AuthorClerkID, *note.DriveFileID); err != nil {
				warning = fmt.Sprintf("note %s: remote file %s not deleted: %v", note.ID, *note.DriveFileID, err)
			}
			return nil
		}

		noteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout+noteCommitBudget)
		err := s.notes.ArchiveExpired(noteCtx, note.Archive(now), cutoff, removeRemote)
		cancel()
		switch {
		case err == nil:
			result.ProcessedCount++
			sweepArchivedTotal.Inc()
			if warning != "" {
				logger.Warn().Str("noteID", note.ID).Msg(warning)
				result.Warnings = append(result.Warnings, warning)
			}
		case errors.Is(err, apperrors.ErrNoteNotRejected):
			logger.Warn().Str("noteID", note.ID).Msg("Note changed state during sweep, skipped")
		default:
			sweepFailuresTotal.Inc()
			logger.Error().Err(err).Str("noteID", note.ID).Msg("Failed to archive expired note")
			result.Errors = append(result.Errors, fmt.Sprintf("note %s: %v", note.ID, err))
		}
	}

	sweepRunsTotal.WithLabelValues(sweepOutcome(result)).Inc()
	logger.Info().
		Time("cutoff", cutoff).
		Int("selected", len(expired)).
		Int("processed", result.ProcessedCount).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Msg("Rejected note sweep finished")
	return result, nil
}

// sweepOutcome labels a finished run: partial when any note failed
func sweepOutcome(result *SweepResult) string {
	if len(result.Errors) > 0 {
		return "partial"
	}
	return "ok"
}

package repositories

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/config"
	"github.com/notesphere/notesphere/internal/db"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container, applies migrations and returns
// the repositories bound to it.
func setupTestDB(t *testing.T) *Repositories {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("notesphere_test"),
		postgres.WithUsername("notesphere"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	t.Setenv("DB_HOST", host)
	t.Setenv("DB_PORT", port.Port())
	t.Setenv("DB_NAME", "notesphere_test")
	t.Setenv("DB_USER", "notesphere")
	t.Setenv("DB_PASSWORD", "test-password")
	t.Setenv("CLERK_JWKS_URL", "http://localhost/jwks.json")
	t.Setenv("OAUTH_STATE_SECRET", "test")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := db.Migrate(cfg.GetMigrationURL()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(database.Close)

	return NewRepositories(database)
}

func seedSubject(t *testing.T, repos *Repositories) (*models.User, *models.Subject) {
	t.Helper()
	ctx := context.Background()

	user, err := repos.UserRepository.Upsert(ctx, &models.User{ClerkID: "user_1", Email: "a@uni.edu", Name: "Ada"})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	year := &models.Year{Number: 1}
	if err := repos.YearRepository.Create(ctx, year); err != nil {
		t.Fatalf("create year: %v", err)
	}
	semester := &models.Semester{Number: 1, YearID: year.ID}
	if err := repos.SemesterRepository.Create(ctx, semester); err != nil {
		t.Fatalf("create semester: %v", err)
	}
	subject := &models.Subject{Name: "Algorithms", Code: "CS201", SemesterID: semester.ID}
	if err := repos.SubjectRepository.Create(ctx, subject); err != nil {
		t.Fatalf("create subject: %v", err)
	}
	return user, subject
}

func TestCatalogConstraints(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	_, subject := seedSubject(t, repos)

	if err := repos.YearRepository.Create(ctx, &models.Year{Number: 1}); !errors.Is(err, apperrors.ErrYearAlreadyExists) {
		t.Fatalf("duplicate year: got %v", err)
	}
	dup := &models.Subject{Name: "Other", Code: "CS201", SemesterID: subject.SemesterID}
	if err := repos.SubjectRepository.Create(ctx, dup); !errors.Is(err, apperrors.ErrSubjectAlreadyExists) {
		t.Fatalf("duplicate subject code: got %v", err)
	}
	if err := repos.SemesterRepository.Delete(ctx, subject.SemesterID); !errors.Is(err, apperrors.ErrHasDependents) {
		t.Fatalf("delete semester with subjects: got %v", err)
	}

	tree, err := repos.YearRepository.Tree(ctx)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Semesters) != 1 || len(tree[0].Semesters[0].Subjects) != 1 {
		t.Fatalf("unexpected tree shape: %+v", tree)
	}
}

func TestModerationGuardAndLikes(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	user, subject := seedSubject(t, repos)

	note := &models.Note{Title: "Week 1", Type: models.NoteTypePDF, AuthorClerkID: user.ClerkID, SubjectID: subject.ID}
	if err := repos.NoteRepository.Create(ctx, note); err != nil {
		t.Fatalf("create note: %v", err)
	}

	stale := *note
	from, err := note.Apply(models.ActionApprove, time.Now())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := repos.NoteRepository.UpdateModeration(ctx, note, from); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// A second writer that read the note before the approval loses.
	from, _ = stale.Apply(models.ActionReject, time.Now())
	if err := repos.NoteRepository.UpdateModeration(ctx, &stale, from); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("stale reject: got %v", err)
	}

	first, err := repos.LikeRepository.Toggle(ctx, user.ClerkID, models.TargetNote, note.ID)
	if err != nil || first.Action != models.LikeActionLiked || first.Count != 1 {
		t.Fatalf("first toggle: %+v %v", first, err)
	}
	second, err := repos.LikeRepository.Toggle(ctx, user.ClerkID, models.TargetNote, note.ID)
	if err != nil || second.Action != models.LikeActionUnliked || second.Count != 0 {
		t.Fatalf("second toggle: %+v %v", second, err)
	}

	count, err := repos.NoteRepository.IncrementDownloadCount(ctx, note.ID)
	if err != nil || count != 1 {
		t.Fatalf("increment download: %d %v", count, err)
	}
}

func TestArchiveExpired(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()
	user, subject := seedSubject(t, repos)

	note := &models.Note{Title: "Old", Type: models.NoteTypePDF, AuthorClerkID: user.ClerkID, SubjectID: subject.ID}
	if err := repos.NoteRepository.Create(ctx, note); err != nil {
		t.Fatalf("create note: %v", err)
	}
	rejectedAt := time.Now().Add(-72 * time.Hour)
	from, _ := note.Apply(models.ActionReject, rejectedAt)
	if err := repos.NoteRepository.UpdateModeration(ctx, note, from); err != nil {
		t.Fatalf("reject: %v", err)
	}

	cutoff := time.Now().Add(-48 * time.Hour)
	expired, err := repos.NoteRepository.ListExpiredRejected(ctx, cutoff)
	if err != nil || len(expired) != 1 {
		t.Fatalf("list expired: %d %v", len(expired), err)
	}
	if expired[0].SubjectName != "Algorithms" || expired[0].AuthorName != "Ada" {
		t.Fatalf("expired note missing names: %+v", expired[0])
	}

	hookErr := errors.New("abort")
	archive := expired[0].Archive(time.Now())
	if err := repos.NoteRepository.ArchiveExpired(ctx, archive, cutoff, func(context.Context) error { return hookErr }); !errors.Is(err, hookErr) {
		t.Fatalf("hook error should abort: %v", err)
	}
	if _, err := repos.NoteRepository.GetByID(ctx, note.ID); err != nil {
		t.Fatalf("note should survive a rolled back archive: %v", err)
	}

	if err := repos.NoteRepository.ArchiveExpired(ctx, archive, cutoff, nil); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := repos.NoteRepository.GetByID(ctx, note.ID); !errors.Is(err, apperrors.ErrNoteNotFound) {
		t.Fatalf("note should be gone: %v", err)
	}
	if err := repos.NoteRepository.ArchiveExpired(ctx, archive, cutoff, nil); !errors.Is(err, apperrors.ErrNoteNotRejected) {
		t.Fatalf("replayed archive: %v", err)
	}

	archived, total, err := repos.RejectedNoteRepository.List(ctx, 1, 10)
	if err != nil || total != 1 || archived[0].OriginalNoteID != note.ID {
		t.Fatalf("archive listing: %+v %d %v", archived, total, err)
	}
}

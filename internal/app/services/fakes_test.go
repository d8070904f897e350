package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/repositories"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/filestorage"
	"github.com/notesphere/notesphere/internal/pkg/lock"
)

var (
	testAdmin   = &models.User{ClerkID: "admin_1", Name: "Admin", Role: models.RoleAdmin}
	testStudent = &models.User{ClerkID: "user_1", Name: "Ada", Role: models.RoleUser}
	testOther   = &models.User{ClerkID: "user_2", Name: "Grace", Role: models.RoleUser}
)

func strPtr(s string) *string { return &s }

// fakeNotes is an in-memory NoteStore
type fakeNotes struct {
	mu       sync.Mutex
	notes    map[string]*models.Note
	archived map[string]*models.RejectedNote
	subjects map[string]string
	failIDs  map[string]error
	reads    int
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{
		notes:    map[string]*models.Note{},
		archived: map[string]*models.RejectedNote{},
		subjects: map[string]string{},
		failIDs:  map[string]error{},
	}
}

func (f *fakeNotes) put(n *models.Note) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *n
	f.notes[n.ID] = &cp
}

func (f *fakeNotes) stored(id string) (*models.Note, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok {
		return nil, false
	}
	cp := *n
	return &cp, true
}

func (f *fakeNotes) Create(_ context.Context, note *models.Note) error {
	if _, ok := f.subjects[note.SubjectID]; !ok {
		return apperrors.ErrSubjectNotFound
	}
	now := time.Now()
	note.CreatedAt, note.UpdatedAt = now, now
	f.put(note)
	return nil
}

func (f *fakeNotes) GetByID(_ context.Context, id string) (*models.Note, error) {
	f.mu.Lock()
	f.reads++
	f.mu.Unlock()
	if n, ok := f.stored(id); ok {
		return n, nil
	}
	return nil, apperrors.ErrNoteNotFound
}

func (f *fakeNotes) List(_ context.Context, filter repositories.NoteFilter) ([]*models.Note, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Note{}
	for _, n := range f.notes {
		if filter.SubjectID != "" && n.SubjectID != filter.SubjectID {
			continue
		}
		if filter.AuthorClerkID != "" && n.AuthorClerkID != filter.AuthorClerkID {
			continue
		}
		if filter.State != "" && n.State() != filter.State {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeNotes) UpdateModeration(_ context.Context, note *models.Note, from models.ModerationState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.notes[note.ID]
	if !ok || cur.State() != from {
		return apperrors.NewConflictError("note was modified concurrently")
	}
	cp := *note
	f.notes[note.ID] = &cp
	return nil
}

func (f *fakeNotes) IncrementDownloadCount(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok {
		return 0, apperrors.ErrNoteNotFound
	}
	n.DownloadCount++
	return n.DownloadCount, nil
}

func (f *fakeNotes) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notes[id]; !ok {
		return apperrors.ErrNoteNotFound
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeNotes) ListExpiredRejected(_ context.Context, cutoff time.Time) ([]*models.ExpiredNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.ExpiredNote{}
	for _, n := range f.notes {
		if n.ExpiredAt(cutoff) {
			out = append(out, &models.ExpiredNote{Note: *n, SubjectName: f.subjects[n.SubjectID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeNotes) ArchiveExpired(ctx context.Context, archive *models.RejectedNote, cutoff time.Time, beforeCommit func(ctx context.Context) error) error {
	if err, ok := f.failIDs[archive.OriginalNoteID]; ok {
		return err
	}

	f.mu.Lock()
	n, ok := f.notes[archive.OriginalNoteID]
	if !ok || !n.ExpiredAt(cutoff) {
		f.mu.Unlock()
		return apperrors.ErrNoteNotRejected
	}
	f.mu.Unlock()

	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return err
		}
	}
	// a real commit fails once the transaction context is done
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.notes, archive.OriginalNoteID)
	if _, exists := f.archived[archive.ID]; !exists {
		f.archived[archive.ID] = archive
	}
	return nil
}

func (f *fakeNotes) CountByState(context.Context) (*repositories.NoteCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &repositories.NoteCounts{}
	for _, n := range f.notes {
		switch n.State() {
		case models.StatePublic:
			c.Public++
		case models.StatePending:
			c.Pending++
		case models.StateRejected:
			c.Rejected++
		}
	}
	return c, nil
}

// fakeArchive reads the rows archived through fakeNotes
type fakeArchive struct{ notes *fakeNotes }

func (a fakeArchive) List(context.Context, int, int) ([]*models.RejectedNote, int64, error) {
	a.notes.mu.Lock()
	defer a.notes.mu.Unlock()
	out := []*models.RejectedNote{}
	for _, r := range a.notes.archived {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (a fakeArchive) Count(context.Context) (int64, error) {
	a.notes.mu.Lock()
	defer a.notes.mu.Unlock()
	return int64(len(a.notes.archived)), nil
}

// fakeStorage records provider calls
type fakeStorage struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
	sessions  int
	hang      bool // DeleteFile blocks until its context is done
}

func (s *fakeStorage) Name() string { return "fake" }

func (s *fakeStorage) CreateUploadSession(_ context.Context, owner, name, _ string) (*filestorage.UploadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions++
	return &filestorage.UploadSession{UploadURL: "https://upload.test/" + name, FileID: owner + "/" + name}, nil
}

func (s *fakeStorage) DownloadURL(_ context.Context, fileID string) (string, error) {
	return "https://download.test/" + fileID, nil
}

func (s *fakeStorage) DeleteFile(ctx context.Context, _, fileID string) error {
	if s.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, fileID)
	return s.deleteErr
}

// fakeSubjects is an in-memory SubjectStore
type fakeSubjects struct {
	subjects map[string]*models.Subject
	calls    int
}

func (f *fakeSubjects) Create(_ context.Context, s *models.Subject) error {
	for _, existing := range f.subjects {
		if existing.SemesterID == s.SemesterID && existing.Code == s.Code {
			return apperrors.ErrSubjectAlreadyExists
		}
	}
	f.subjects[s.ID] = s
	return nil
}

func (f *fakeSubjects) Update(_ context.Context, s *models.Subject) error {
	if _, ok := f.subjects[s.ID]; !ok {
		return apperrors.ErrSubjectNotFound
	}
	f.subjects[s.ID] = s
	return nil
}

func (f *fakeSubjects) GetByID(_ context.Context, id string) (*models.Subject, error) {
	f.calls++
	if s, ok := f.subjects[id]; ok {
		return s, nil
	}
	return nil, apperrors.ErrSubjectNotFound
}

func (f *fakeSubjects) ListBySemester(_ context.Context, semesterID string) ([]*models.Subject, error) {
	out := []*models.Subject{}
	for _, s := range f.subjects {
		if s.SemesterID == semesterID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubjects) Delete(_ context.Context, id string) error {
	if _, ok := f.subjects[id]; !ok {
		return apperrors.ErrSubjectNotFound
	}
	delete(f.subjects, id)
	return nil
}

// fakeNotices is an in-memory NoticeStore
type fakeNotices struct {
	notices map[string]*models.Notice
}

func (f *fakeNotices) Create(_ context.Context, n *models.Notice) error {
	f.notices[n.ID] = n
	return nil
}

func (f *fakeNotices) Update(_ context.Context, n *models.Notice) error {
	if _, ok := f.notices[n.ID]; !ok {
		return apperrors.ErrNoticeNotFound
	}
	f.notices[n.ID] = n
	return nil
}

func (f *fakeNotices) SetPublished(_ context.Context, id string, published bool) error {
	n, ok := f.notices[id]
	if !ok {
		return apperrors.ErrNoticeNotFound
	}
	n.IsPublished = published
	return nil
}

func (f *fakeNotices) GetByID(_ context.Context, id string) (*models.Notice, error) {
	if n, ok := f.notices[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, apperrors.ErrNoticeNotFound
}

func (f *fakeNotices) List(_ context.Context, publishedOnly bool, _, _ int) ([]*models.Notice, int64, error) {
	out := []*models.Notice{}
	for _, n := range f.notices {
		if publishedOnly && !n.IsPublished {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotices) Delete(_ context.Context, id string) error {
	if _, ok := f.notices[id]; !ok {
		return apperrors.ErrNoticeNotFound
	}
	delete(f.notices, id)
	return nil
}

func (f *fakeNotices) Count(context.Context) (int64, error) {
	return int64(len(f.notices)), nil
}

// fakeLikes keeps a set of (user, target) pairs
type fakeLikes struct {
	mu    sync.Mutex
	liked map[string]bool
}

func (f *fakeLikes) Toggle(_ context.Context, user string, kind models.TargetKind, target string) (*models.LikeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := user + "|" + string(kind) + "|" + target
	action := models.LikeActionLiked
	if f.liked[key] {
		delete(f.liked, key)
		action = models.LikeActionUnliked
	} else {
		f.liked[key] = true
	}

	suffix := "|" + string(kind) + "|" + target
	count := 0
	for k := range f.liked {
		if len(k) > len(suffix) && k[len(k)-len(suffix):] == suffix {
			count++
		}
	}
	return &models.LikeResult{Action: action, Count: count}, nil
}

// fakeUsers is an in-memory UserStore
type fakeUsers struct {
	users   map[string]*models.User
	upserts int
}

func (f *fakeUsers) Upsert(_ context.Context, u *models.User) (*models.User, error) {
	f.upserts++
	if existing, ok := f.users[u.ClerkID]; ok {
		existing.Email, existing.Name, existing.ImageURL = u.Email, u.Name, u.ImageURL
		cp := *existing
		return &cp, nil
	}
	cp := *u
	f.users[u.ClerkID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsers) GetByClerkID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) List(context.Context, int, int) ([]*models.User, int64, error) {
	out := []*models.User{}
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id string, role models.RoleType) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

// fakeLocker hands out a lock unless held is set
type fakeLocker struct {
	held     bool
	released int
}

func (l *fakeLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	if l.held {
		return nil, lock.ErrNotAcquired
	}
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/models/dto"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/health"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var student = &models.User{ClerkID: "user_1", Email: "s@example.com", Role: models.RoleUser}

// asUser puts u where the auth middleware would
func asUser(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", u)
		c.Next()
	}
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

type fakeSweeper struct {
	result *services.SweepResult
	err    error
	gotNow time.Time
}

func (f *fakeSweeper) Sweep(_ context.Context, now time.Time) (*services.SweepResult, error) {
	f.gotNow = now
	return f.result, f.err
}

func TestProcessRejected(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("reports the run", func(t *testing.T) {
		sweeper := &fakeSweeper{result: &services.SweepResult{ProcessedCount: 2, Warnings: []string{"drive file gone"}}}
		c := NewModerationController(nil, sweeper)
		c.now = func() time.Time { return fixed }

		r := gin.New()
		r.POST("/sweep", c.ProcessRejected)
		w := do(t, r, http.MethodPost, "/sweep", "")

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		var resp dto.SweepResponse
		decode(t, w, &resp)
		if !resp.Success || resp.ProcessedCount != 2 || len(resp.Warnings) != 1 {
			t.Fatalf("unexpected response %+v", resp)
		}
		if !sweeper.gotNow.Equal(fixed) {
			t.Fatalf("sweep ran at %v, want %v", sweeper.gotNow, fixed)
		}
	})

	t.Run("overlapping run conflicts", func(t *testing.T) {
		c := NewModerationController(nil, &fakeSweeper{err: apperrors.ErrSweepInProgress})
		r := gin.New()
		r.POST("/sweep", c.ProcessRejected)
		if w := do(t, r, http.MethodPost, "/sweep", ""); w.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", w.Code)
		}
	})
}

type fakeNotes struct {
	services.NoteService
	created *models.Note
}

func (f *fakeNotes) Create(_ context.Context, author *models.User, note *models.Note) (*models.Note, error) {
	note.ID = "note_1"
	note.AuthorClerkID = author.ClerkID
	f.created = note
	return note, nil
}

func (f *fakeNotes) DownloadURL(_ context.Context, _ *models.User, id string) (string, error) {
	if id != "note_1" {
		return "", apperrors.ErrNoteNotFound
	}
	return "https://files.example.com/note_1", nil
}

func TestCreateNote(t *testing.T) {
	notes := &fakeNotes{}
	c := NewNoteController(notes, 48*time.Hour)
	r := gin.New()
	r.POST("/notes", asUser(student), c.CreateNote)

	t.Run("rejects invalid body", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/notes", `{"title":"ab","type":"VIDEO"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		var resp dto.ErrorResponse
		decode(t, w, &resp)
		if resp.Error == nil || resp.Error.Code != dto.ErrorCodeValidationFailed {
			t.Fatalf("unexpected error %+v", resp.Error)
		}
		if notes.created != nil {
			t.Fatal("service called for invalid body")
		}
	})

	t.Run("creates a pending note", func(t *testing.T) {
		body := `{"title":"Graphs week 2","type":"PDF","fileUrl":"https://files.example.com/x.pdf","subjectId":"6f1c1c52-3a0e-4a43-9b59-2a4f1b0f8f11"}`
		w := do(t, r, http.MethodPost, "/notes", body)
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		var resp struct {
			Success bool             `json:"success"`
			Data    dto.NoteResponse `json:"data"`
		}
		decode(t, w, &resp)
		if !resp.Success || resp.Data.State != models.StatePending || resp.Data.AuthorClerkID != student.ClerkID {
			t.Fatalf("unexpected response %+v", resp)
		}
	})
}

func TestDownloadFileRedirects(t *testing.T) {
	c := NewNoteController(&fakeNotes{}, time.Hour)
	r := gin.New()
	r.GET("/notes/:id/download-file", c.DownloadFile)

	w := do(t, r, http.MethodGet, "/notes/note_1/download-file", "")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://files.example.com/note_1" {
		t.Fatalf("location = %q", loc)
	}

	if w := do(t, r, http.MethodGet, "/notes/missing/download-file", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing note status = %d, want 404", w.Code)
	}
}

type fakeUploads struct {
	services.UploadService
	callbackErr error
}

func (f *fakeUploads) Callback(_ context.Context, code, state string) (string, error) {
	if f.callbackErr != nil {
		return "", f.callbackErr
	}
	return "http://app.example.com/settings?drive=connected", nil
}

func TestDriveCallback(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		err      error
		status   int
		location string
	}{
		{"missing code", "?state=s", nil, http.StatusBadRequest, ""},
		{"bad state", "?code=c&state=s", apperrors.ErrTokenInvalid, http.StatusUnauthorized, ""},
		{"linked", "?code=c&state=s", nil, http.StatusFound, "http://app.example.com/settings?drive=connected"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewDriveController(&fakeUploads{callbackErr: tc.err})
			r := gin.New()
			r.GET("/drive/callback", c.Callback)
			w := do(t, r, http.MethodGet, "/drive/callback"+tc.query, "")
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			if tc.location != "" && w.Header().Get("Location") != tc.location {
				t.Fatalf("location = %q", w.Header().Get("Location"))
			}
		})
	}
}

type fakeLikes struct {
	count int
	err   error
}

func (f *fakeLikes) Toggle(_ context.Context, _ *models.User, _ models.TargetKind, _ string) (*models.LikeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.count++
	return &models.LikeResult{Action: models.LikeActionLiked, Count: f.count}, nil
}

func TestToggleNoteLike(t *testing.T) {
	likes := &fakeLikes{}
	c := NewSocialController(likes, nil)
	r := gin.New()
	r.POST("/notes/:id/likes", asUser(student), c.ToggleNoteLike)

	w := do(t, r, http.MethodPost, "/notes/n1/likes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp dto.LikeToggleResponse
	decode(t, w, &resp)
	if !resp.Success || resp.Action != models.LikeActionLiked || resp.Count != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}

	likes.err = apperrors.ErrTooManyRequests
	if w := do(t, r, http.MethodPost, "/notes/n1/likes", ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("rate limited status = %d, want 429", w.Code)
	}
}

func TestReadiness(t *testing.T) {
	readiness := health.NewReadiness(time.Second, nil)
	var dbErr error
	readiness.Add("postgres", func(context.Context) error { return dbErr })

	c := NewHealthController(readiness)
	r := gin.New()
	r.GET("/health/ready", c.Ready)
	r.GET("/health/live", c.Live)

	if w := do(t, r, http.MethodGet, "/health/ready", ""); w.Code != http.StatusOK {
		t.Fatalf("healthy status = %d", w.Code)
	}

	dbErr = errors.New("connection refused")
	w := do(t, r, http.MethodGet, "/health/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status = %d, want 503", w.Code)
	}
	var res health.Result
	decode(t, w, &res)
	if res.Status != health.StatusFail || !strings.HasPrefix(res.Checks["postgres"], health.StatusFail) {
		t.Fatalf("unexpected result %+v", res)
	}

	if w := do(t, r, http.MethodGet, "/health/live", ""); w.Code != http.StatusOK {
		t.Fatalf("live status = %d", w.Code)
	}
}

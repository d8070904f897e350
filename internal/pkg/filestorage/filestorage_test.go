package filestorage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
)

type memoryTokens struct {
	mu    sync.Mutex
	byID  map[string]*models.UserAuth
	saved []*models.UserAuth
}

func (m *memoryTokens) Get(_ context.Context, id string) (*models.UserAuth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ua, ok := m.byID[id]; ok {
		return ua, nil
	}
	return nil, apperrors.ErrDriveNotConnected
}

func (m *memoryTokens) Save(_ context.Context, ua *models.UserAuth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, ua)
	return nil
}

// fakeDrive serves the subset of the Drive API the provider calls
type fakeDrive struct {
	t           *testing.T
	server      *httptest.Server
	wantBearer  string
	createCode  int
	deleteCode  int
	shared      bool
	uploadMime  string
	refreshHits int
}

func newFakeDrive(t *testing.T, wantBearer string) *fakeDrive {
	f := &fakeDrive{t: t, wantBearer: wantBearer, createCode: http.StatusOK, deleteCode: http.StatusNoContent}
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.refreshHits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
	})

	mux.HandleFunc("/drive/v3/files", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		if f.createCode != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.createCode)
			_, _ = w.Write([]byte(`{"error":{"message":"storage quota exceeded"}}`))
			return
		}
		var meta map[string]any
		_ = json.NewDecoder(r.Body).Decode(&meta)
		if meta["name"] != "week1.pdf" {
			t.Errorf("unexpected metadata %+v", meta)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"file-1","webViewLink":"https://drive.test/view/file-1","webContentLink":"https://drive.test/dl/file-1"}`))
	})

	mux.HandleFunc("/drive/v3/files/file-1/permissions", func(w http.ResponseWriter, r *http.Request) {
		f.shared = true
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"anyoneWithLink"}`))
	})

	mux.HandleFunc("/drive/v3/files/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || !f.authorized(w, r) {
			return
		}
		if f.deleteCode != http.StatusNoContent {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.deleteCode)
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/upload/drive/v3/files/file-1", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		if r.Method != http.MethodPatch || r.URL.Query().Get("uploadType") != "resumable" {
			t.Errorf("unexpected session request %s %s", r.Method, r.URL)
		}
		f.uploadMime = r.Header.Get("X-Upload-Content-Type")
		w.Header().Set("Location", f.server.URL+"/upload/session/abc")
		w.WriteHeader(http.StatusOK)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeDrive) authorized(w http.ResponseWriter, r *http.Request) bool {
	if got := r.Header.Get("Authorization"); got != "Bearer "+f.wantBearer {
		f.t.Errorf("authorization = %q, want bearer %q", got, f.wantBearer)
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func (f *fakeDrive) config() DriveConfig {
	return DriveConfig{
		ClientID:      "client",
		ClientSecret:  "secret",
		APIBaseURL:    f.server.URL + "/drive/v3/",
		UploadBaseURL: f.server.URL + "/upload/drive/v3",
		TokenURL:      f.server.URL + "/token",
		Timeout:       5 * time.Second,
	}
}

func TestDriveUploadSessionWithAppToken(t *testing.T) {
	fake := newFakeDrive(t, "app-token")
	cfg := fake.config()
	cfg.AccessToken = "app-token"
	cfg.ShareWithLink = true

	p := NewDriveProvider(cfg, &memoryTokens{byID: map[string]*models.UserAuth{}})
	session, err := p.CreateUploadSession(context.Background(), "user_1", "week1.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("CreateUploadSession: %v", err)
	}
	if session.FileID != "file-1" || session.UploadURL != fake.server.URL+"/upload/session/abc" {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.WebViewLink == "" || session.WebContentLink == "" {
		t.Fatalf("links missing: %+v", session)
	}
	if fake.uploadMime != "application/pdf" {
		t.Fatalf("upload content type = %q", fake.uploadMime)
	}
	if !fake.shared {
		t.Fatalf("file should be shared with link")
	}
}

func TestDrivePrefersUserTokenAndPersistsRefresh(t *testing.T) {
	fake := newFakeDrive(t, "fresh-token")
	expired := time.Now().Add(-time.Hour)
	tokens := &memoryTokens{byID: map[string]*models.UserAuth{
		"user_1": {UserClerkID: "user_1", AccessToken: "stale", RefreshToken: "refresh-1", TokenType: "Bearer", Expiry: &expired},
	}}
	cfg := fake.config()
	cfg.AccessToken = "app-token"

	p := NewDriveProvider(cfg, tokens)
	if _, err := p.CreateUploadSession(context.Background(), "user_1", "week1.pdf", "application/pdf"); err != nil {
		t.Fatalf("CreateUploadSession: %v", err)
	}
	if fake.refreshHits == 0 {
		t.Fatalf("expired user token should be refreshed")
	}
	if len(tokens.saved) == 0 || tokens.saved[0].AccessToken != "fresh-token" {
		t.Fatalf("refreshed token not persisted: %+v", tokens.saved)
	}
}

func TestDriveNoCredentials(t *testing.T) {
	p := NewDriveProvider(DriveConfig{}, nil)
	_, err := p.CreateUploadSession(context.Background(), "user_1", "a.pdf", "application/pdf")
	if !errors.Is(err, apperrors.ErrStorageNotConfigured) {
		t.Fatalf("expected ErrStorageNotConfigured, got %v", err)
	}
}

func TestDriveProviderErrorKeepsStatus(t *testing.T) {
	fake := newFakeDrive(t, "app-token")
	fake.createCode = http.StatusForbidden
	cfg := fake.config()
	cfg.AccessToken = "app-token"

	_, err := NewDriveProvider(cfg, nil).CreateUploadSession(context.Background(), "", "week1.pdf", "application/pdf")
	var perr *ProviderError
	if !errors.As(err, &perr) || perr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 provider error, got %v", err)
	}
}

func TestDriveDeleteToleratesNotFound(t *testing.T) {
	fake := newFakeDrive(t, "app-token")
	cfg := fake.config()
	cfg.AccessToken = "app-token"
	p := NewDriveProvider(cfg, nil)

	if err := p.DeleteFile(context.Background(), "", "file-9"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	fake.deleteCode = http.StatusNotFound
	if err := p.DeleteFile(context.Background(), "", "file-9"); err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}

	fake.deleteCode = http.StatusConflict
	var perr *ProviderError
	if err := p.DeleteFile(context.Background(), "", "file-9"); !errors.As(err, &perr) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestDriveAuthCodeURL(t *testing.T) {
	cfg := DriveConfig{ClientID: "client", RedirectURI: "http://localhost/api/drive/callback"}
	raw := NewDriveProvider(cfg, nil).AuthCodeURL("state-1")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-1" || q.Get("access_type") != "offline" || q.Get("client_id") != "client" {
		t.Fatalf("unexpected consent URL %s", raw)
	}
}

func TestMinioPresignedURLs(t *testing.T) {
	p, err := NewMinioProvider(MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio-secret",
		Bucket:    "notes",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewMinioProvider: %v", err)
	}

	session, err := p.CreateUploadSession(context.Background(), "user_1", "../Week 1.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("CreateUploadSession: %v", err)
	}
	if !strings.HasPrefix(session.FileID, "notes/user_1/") || !strings.HasSuffix(session.FileID, "-Week_1.pdf") {
		t.Fatalf("unexpected object key %q", session.FileID)
	}
	if !strings.Contains(session.UploadURL, "X-Amz-Signature=") {
		t.Fatalf("upload URL is not presigned: %s", session.UploadURL)
	}

	dl, err := p.DownloadURL(context.Background(), session.FileID)
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if !strings.Contains(dl, "/notes/"+session.FileID) {
		t.Fatalf("download URL does not address the object: %s", dl)
	}
}

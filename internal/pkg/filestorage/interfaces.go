package filestorage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/notesphere/notesphere/internal/app/models"
)

// ErrFileNotFound is returned when the remote file does not exist
var ErrFileNotFound = errors.New("remote file not found")

// UploadSession is what a client needs to upload bytes straight to the provider
type UploadSession struct {
	UploadURL      string
	FileID         string
	WebViewLink    string
	WebContentLink string
}

// Provider is a remote file store. The API never proxies file bytes; it only
// opens upload sessions, resolves download URLs and deletes files.
type Provider interface {
	// Name identifies the provider in logs and health output
	Name() string

	// CreateUploadSession registers a file for owner and returns a URL the
	// client can upload to directly
	CreateUploadSession(ctx context.Context, owner, name, mimeType string) (*UploadSession, error)

	// DownloadURL resolves a direct download URL for fileID
	DownloadURL(ctx context.Context, fileID string) (string, error)

	// DeleteFile removes fileID. A missing file is not an error.
	DeleteFile(ctx context.Context, owner, fileID string) error
}

// Connector is implemented by providers that link a user's own account via OAuth
type Connector interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, owner, code string) (*models.UserAuth, error)
}

// TokenStore persists per-user OAuth tokens
type TokenStore interface {
	Get(ctx context.Context, clerkID string) (*models.UserAuth, error)
	Save(ctx context.Context, ua *models.UserAuth) error
}

// ProviderError carries the status code the provider answered with so it can
// be surfaced to the API client unchanged.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("storage provider error (%d): %s", e.StatusCode, e.Message)
}

// NewProviderError builds a ProviderError, defaulting to 502 when the status is unknown
func NewProviderError(status int, message string) *ProviderError {
	if status < 400 {
		status = http.StatusBadGateway
	}
	return &ProviderError{StatusCode: status, Message: message}
}

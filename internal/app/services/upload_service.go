package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/auth"
	"github.com/notesphere/notesphere/internal/pkg/filestorage"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// DriveStatus reports whether a user linked their own storage account
type DriveStatus struct {
	Connected bool
	Account   *models.UserAuth
}

// UploadService hands out upload sessions and manages linked accounts
type UploadService interface {
	CreateUploadSession(ctx context.Context, user *models.User, name, mimeType string) (*filestorage.UploadSession, error)
	ConnectURL(ctx context.Context, user *models.User) (string, error)
	Callback(ctx context.Context, code, state string) (string, error)
	Disconnect(ctx context.Context, user *models.User) error
	Status(ctx context.Context, user *models.User) (*DriveStatus, error)
}

// uploadServiceImpl implements the UploadService interface
type uploadServiceImpl struct {
	storage    filestorage.Provider
	accounts   UserAuthStore
	state      *auth.StateSigner
	appBaseURL string
}

// NewUploadService creates a new upload service instance
func NewUploadService(storage filestorage.Provider, accounts UserAuthStore, state *auth.StateSigner, appBaseURL string) UploadService {
	return &uploadServiceImpl{
		storage:    storage,
		accounts:   accounts,
		state:      state,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
	}
}

func (s *uploadServiceImpl) connector() (filestorage.Connector, error) {
	c, ok := s.storage.(filestorage.Connector)
	if !ok || s.state == nil {
		return nil, apperrors.NewBadRequestError("the configured storage provider does not support linking an account")
	}
	return c, nil
}

// CreateUploadSession opens an upload target for the user. The file bytes go
// straight from the client to the provider.
func (s *uploadServiceImpl) CreateUploadSession(ctx context.Context, user *models.User, name, mimeType string) (*filestorage.UploadSession, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	mimeType = strings.TrimSpace(mimeType)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	if mimeType == "" {
		return nil, apperrors.NewValidationError("mimeType", "mimeType is required")
	}
	if s.storage == nil {
		return nil, apperrors.ErrStorageNotConfigured
	}

	session, err := s.storage.CreateUploadSession(ctx, user.ClerkID, name, mimeType)
	if err != nil {
		logger.Warn().Err(err).Str("clerkID", user.ClerkID).Str("provider", s.storage.Name()).Msg("Failed to create upload session")
		return nil, err
	}

	logger.Info().Str("clerkID", user.ClerkID).Str("fileID", session.FileID).Str("provider", s.storage.Name()).Msg("Upload session created")
	return session, nil
}

// ConnectURL returns the consent URL that links the user's own account
func (s *uploadServiceImpl) ConnectURL(_ context.Context, user *models.User) (string, error) {
	if user == nil {
		return "", apperrors.ErrUnauthorized
	}
	c, err := s.connector()
	if err != nil {
		return "", err
	}

	state, err := s.state.Issue(user.ClerkID)
	if err != nil {
		return "", fmt.Errorf("error issuing oauth state: %w", err)
	}
	return c.AuthCodeURL(state), nil
}

// Callback completes the consent round trip and returns where to send the
// browser next.
func (s *uploadServiceImpl) Callback(ctx context.Context, code, state string) (string, error) {
	c, err := s.connector()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(code) == "" {
		return "", apperrors.NewValidationError("code", "authorization code is required")
	}

	clerkID, err := s.state.Verify(state)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return "", apperrors.NewCustomError(apperrors.ErrUnauthorized, "the connect link has expired, start again")
		}
		return "", apperrors.NewCustomError(apperrors.ErrUnauthorized, "invalid oauth state")
	}

	if _, err := c.Exchange(ctx, clerkID, code); err != nil {
		return "", err
	}

	logger.Info().Str("clerkID", clerkID).Msg("Drive account connected")
	return s.redirectURL("connected"), nil
}

func (s *uploadServiceImpl) redirectURL(result string) string {
	q := url.Values{}
	q.Set("drive", result)
	return s.appBaseURL + "/?" + q.Encode()
}

// Disconnect forgets the user's linked account
func (s *uploadServiceImpl) Disconnect(ctx context.Context, user *models.User) error {
	if user == nil {
		return apperrors.ErrUnauthorized
	}
	if err := s.accounts.Delete(ctx, user.ClerkID); err != nil {
		if errors.Is(err, apperrors.ErrDriveNotConnected) {
			return apperrors.ErrDriveNotConnected
		}
		return fmt.Errorf("error removing drive account: %w", err)
	}
	return nil
}

// Status reports whether the user linked an account
func (s *uploadServiceImpl) Status(ctx context.Context, user *models.User) (*DriveStatus, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	account, err := s.accounts.Get(ctx, user.ClerkID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDriveNotConnected) {
			return &DriveStatus{Connected: false}, nil
		}
		return nil, fmt.Errorf("error retrieving drive account: %w", err)
	}
	return &DriveStatus{Connected: true, Account: account}, nil
}

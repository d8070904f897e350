package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	defaultUploadBaseURL = "https://www.googleapis.com/upload/drive/v3"
	driveDownloadURL     = "https://drive.google.com/uc?export=download&id="
)

// DriveConfig holds the Google Drive credentials and endpoints
type DriveConfig struct {
	ClientID            string
	ClientSecret        string
	RedirectURI         string
	RefreshToken        string
	AccessToken         string
	ServiceAccountEmail string
	PrivateKey          string
	FolderID            string
	ShareWithLink       bool

	// Endpoint overrides, empty means Google's defaults
	APIBaseURL    string
	UploadBaseURL string
	TokenURL      string

	Timeout time.Duration
}

// DriveProvider stores notes in Google Drive
type DriveProvider struct {
	cfg    DriveConfig
	oauth  *oauth2.Config
	tokens TokenStore
}

// NewDriveProvider creates a DriveProvider. tokens may be nil, in which case
// only the application credentials are used.
func NewDriveProvider(cfg DriveConfig, tokens TokenStore) *DriveProvider {
	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = defaultUploadBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	return &DriveProvider{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     endpoint,
			Scopes:       []string{drive.DriveFileScope},
		},
		tokens: tokens,
	}
}

// Name implements Provider
func (p *DriveProvider) Name() string { return "drive" }

// AuthCodeURL returns the consent URL a user visits to link their Drive
func (p *DriveProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it for owner
func (p *DriveProvider) Exchange(ctx context.Context, owner, code string) (*models.UserAuth, error) {
	if p.cfg.ClientID == "" || p.cfg.ClientSecret == "" {
		return nil, apperrors.ErrStorageNotConfigured
	}

	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Warn().Err(err).Str("clerkID", owner).Msg("Drive authorization code exchange failed")
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageAuthFailed, err)
	}

	ua := userAuthFromToken(owner, tok)
	if p.tokens != nil {
		if err := p.tokens.Save(ctx, ua); err != nil {
			return nil, err
		}
	}
	return ua, nil
}

// httpClient resolves credentials in order: the owner's linked account, the
// application refresh/access token, then the service account.
func (p *DriveProvider) httpClient(ctx context.Context, owner string) (*http.Client, error) {
	if p.tokens != nil && owner != "" {
		ua, err := p.tokens.Get(ctx, owner)
		switch {
		case err == nil:
			tok := tokenFromUserAuth(ua)
			ts := &persistingTokenSource{
				base:  p.oauth.TokenSource(ctx, tok),
				store: p.tokens,
				owner: owner,
				last:  tok.AccessToken,
			}
			return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, ts)), nil
		case !errors.Is(err, apperrors.ErrDriveNotConnected):
			return nil, err
		}
	}

	if p.cfg.RefreshToken != "" {
		tok := &oauth2.Token{AccessToken: p.cfg.AccessToken, RefreshToken: p.cfg.RefreshToken}
		return oauth2.NewClient(ctx, p.oauth.TokenSource(ctx, tok)), nil
	}

	if p.cfg.AccessToken != "" {
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.cfg.AccessToken})), nil
	}

	if p.cfg.ServiceAccountEmail != "" && p.cfg.PrivateKey != "" {
		conf := &jwt.Config{
			Email:      p.cfg.ServiceAccountEmail,
			PrivateKey: []byte(p.cfg.PrivateKey),
			Scopes:     []string{drive.DriveFileScope},
			TokenURL:   google.JWTTokenURL,
		}
		if p.cfg.TokenURL != "" {
			conf.TokenURL = p.cfg.TokenURL
		}
		return conf.Client(ctx), nil
	}

	return nil, apperrors.ErrStorageNotConfigured
}

func (p *DriveProvider) service(ctx context.Context, client *http.Client) (*drive.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.cfg.APIBaseURL != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.APIBaseURL))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return svc, nil
}

// CreateUploadSession creates the file metadata and opens a resumable upload
// session on it. The session URL is returned; the client PUTs the bytes there.
func (p *DriveProvider) CreateUploadSession(ctx context.Context, owner, name, mimeType string) (*UploadSession, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	client, err := p.httpClient(ctx, owner)
	if err != nil {
		return nil, err
	}
	svc, err := p.service(ctx, client)
	if err != nil {
		return nil, err
	}

	meta := &drive.File{Name: name, MimeType: mimeType}
	if p.cfg.FolderID != "" {
		meta.Parents = []string{p.cfg.FolderID}
	}

	file, err := svc.Files.Create(meta).
		Fields("id", "webViewLink", "webContentLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, asProviderError(err, "create file metadata")
	}

	uploadURL, err := p.openResumableSession(ctx, client, file.Id, mimeType)
	if err != nil {
		return nil, err
	}

	if p.cfg.ShareWithLink {
		_, err := svc.Permissions.Create(file.Id, &drive.Permission{Type: "anyone", Role: "reader"}).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			logger.Warn().Err(err).Str("fileID", file.Id).Msg("Failed to share drive file with link")
		}
	}

	return &UploadSession{
		UploadURL:      uploadURL,
		FileID:         file.Id,
		WebViewLink:    file.WebViewLink,
		WebContentLink: file.WebContentLink,
	}, nil
}

func (p *DriveProvider) openResumableSession(ctx context.Context, client *http.Client, fileID, mimeType string) (string, error) {
	endpoint := strings.TrimRight(p.cfg.UploadBaseURL, "/") + "/files/" + url.PathEscape(fileID) + "?uploadType=resumable&supportsAllDrives=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, strings.NewReader("{}"))
	if err != nil {
		return "", fmt.Errorf("failed to build resumable session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", mimeType)

	resp, err := client.Do(req)
	if err != nil {
		return "", asProviderError(err, "open resumable session")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", NewProviderError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", NewProviderError(http.StatusBadGateway, "resumable session response has no Location header")
	}
	return location, nil
}

// DownloadURL implements Provider
func (p *DriveProvider) DownloadURL(_ context.Context, fileID string) (string, error) {
	return driveDownloadURL + url.QueryEscape(fileID), nil
}

// DeleteFile implements Provider
func (p *DriveProvider) DeleteFile(ctx context.Context, owner, fileID string) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	client, err := p.httpClient(ctx, owner)
	if err != nil {
		return err
	}
	svc, err := p.service(ctx, client)
	if err != nil {
		return err
	}

	if err := svc.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil
		}
		return asProviderError(err, "delete file")
	}
	return nil
}

// asProviderError keeps the status code of Google API and OAuth failures
func asProviderError(err error, op string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = op + " failed"
		}
		return NewProviderError(gerr.Code, msg)
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %s", apperrors.ErrStorageAuthFailed, rerr.ErrorCode)
	}

	return NewProviderError(http.StatusBadGateway, fmt.Sprintf("%s: %v", op, err))
}

func tokenFromUserAuth(ua *models.UserAuth) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  ua.AccessToken,
		RefreshToken: ua.RefreshToken,
		TokenType:    ua.TokenType,
	}
	if ua.Expiry != nil {
		tok.Expiry = *ua.Expiry
	}
	return tok
}

func userAuthFromToken(owner string, tok *oauth2.Token) *models.UserAuth {
	ua := &models.UserAuth{
		UserClerkID:  owner,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		ua.Expiry = &expiry
	}
	return ua
}

// persistingTokenSource writes refreshed tokens back to the store
type persistingTokenSource struct {
	base  oauth2.TokenSource
	store TokenStore
	owner string

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Save(ctx, userAuthFromToken(s.owner, tok)); err != nil {
		logger.Warn().Err(err).Str("clerkID", s.owner).Msg("Failed to persist refreshed drive token")
	}
	return tok, nil
}

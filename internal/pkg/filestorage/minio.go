package filestorage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// MinioConfig holds the S3-compatible store settings
type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PresignExpiry time.Duration
}

// MinioProvider stores notes in an S3-compatible bucket using presigned URLs
type MinioProvider struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinioProvider creates the client. No request is made until used.
func NewMinioProvider(cfg MinioConfig) (*MinioProvider, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &MinioProvider{client: client, bucket: cfg.Bucket, expiry: expiry}, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (m *MinioProvider) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		logger.Info().Str("bucket", m.bucket).Msg("Created object storage bucket")
	}
	return nil
}

// Name implements Provider
func (m *MinioProvider) Name() string { return "minio" }

// objectKey namespaces uploads by owner and makes them unique
func objectKey(owner, name string) string {
	base := unsafeKeyChars.ReplaceAllString(path.Base(name), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "file"
	}
	if owner == "" {
		owner = "shared"
	}
	return path.Join("notes", unsafeKeyChars.ReplaceAllString(owner, "_"), uuid.NewString()+"-"+base)
}

// CreateUploadSession implements Provider with a presigned PUT
func (m *MinioProvider) CreateUploadSession(ctx context.Context, owner, name, _ string) (*UploadSession, error) {
	key := objectKey(owner, name)
	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, m.expiry)
	if err != nil {
		return nil, NewProviderError(http.StatusBadGateway, fmt.Sprintf("presign put: %v", err))
	}
	return &UploadSession{UploadURL: u.String(), FileID: key}, nil
}

// DownloadURL implements Provider with a presigned GET
func (m *MinioProvider) DownloadURL(ctx context.Context, fileID string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, fileID, m.expiry, nil)
	if err != nil {
		return "", NewProviderError(http.StatusBadGateway, fmt.Sprintf("presign get: %v", err))
	}
	return u.String(), nil
}

// DeleteFile implements Provider
func (m *MinioProvider) DeleteFile(ctx context.Context, _, fileID string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return nil
		}
		return NewProviderError(resp.StatusCode, fmt.Sprintf("delete object: %v", err))
	}
	return nil
}

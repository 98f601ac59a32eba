package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveService keeps every contract text version as an object in
// MinIO, one per (tenant, contract, version). The registry holds the
// live state; this is the durable file archive behind it.
type ArchiveService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewArchiveService(cfg *config.MinioConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: failed to check bucket: %v", ErrExternalService, err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("%w: failed to create bucket: %v", ErrExternalService, err)
		}
	}

	return nil
}

// StoreVersion writes one contract text version. Objects are immutable
// once written; a revision stores a new version instead of overwriting.
func (s *ArchiveService) StoreVersion(ctx context.Context, tenant, contractID string, version int, text string) (string, error) {
	objectName := versionObjectName(tenant, contractID, version)
	reader := strings.NewReader(text)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, int64(len(text)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to store contract version: %v", ErrExternalService, err)
	}

	return objectName, nil
}

// GetPresignedURL generates a download URL for one stored version.
func (s *ArchiveService) GetPresignedURL(ctx context.Context, tenant, contractID string, version int) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, versionObjectName(tenant, contractID, version), expiry, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to generate presigned URL: %v", ErrExternalService, err)
	}

	return url.String(), nil
}

// ListVersions returns the stored object names for one contract in
// version order.
func (s *ArchiveService) ListVersions(ctx context.Context, tenant, contractID string) ([]string, error) {
	prefix := fmt.Sprintf("%s/%s/", tenant, contractID)

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: failed to list versions: %v", ErrExternalService, obj.Err)
		}
		names = append(names, obj.Key)
	}
	sort.Strings(names)
	return names, nil
}

func versionObjectName(tenant, contractID string, version int) string {
	return fmt.Sprintf("%s/%s/v%04d.txt", tenant, contractID, version)
}

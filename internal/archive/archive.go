// Package archive uploads raw analyzer reports to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// defaultRegion avoids a bucket location lookup before every upload.
const defaultRegion = "us-east-1"

// Archiver stores reports in a single bucket.
type Archiver struct {
	mc     *minio.Client
	bucket string
}

var _ contract.ReportArchiver = &Archiver{} // Compile-time check

// NewArchiver builds an archiver from the archive settings.
// It returns nil without error when archiving is not configured.
func NewArchiver(cfg *contract.Config) (*Archiver, error) {
	if !cfg.ArchiveEnabled() {
		return nil, nil
	}
	endpoint, secure := splitEndpoint(cfg.ArchiveEndpoint, cfg.ArchiveUseSSL)
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ArchiveAccessKey, cfg.ArchiveSecretKey, ""),
		Secure: secure,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client for %s: %w", cfg.ArchiveEndpoint, err)
	}
	return &Archiver{mc: mc, bucket: cfg.ArchiveBucket}, nil
}

// splitEndpoint accepts host:port or a URL; an explicit scheme wins over useSSL.
func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	default:
		return endpoint, useSSL
	}
}

// ReportKey returns the object key for the report of one run.
func ReportKey(owner, repo, runID string) string {
	return path.Join("reports", owner, repo, runID+".json")
}

// Archive uploads data under key and returns "bucket/key".
func (a *Archiver) Archive(ctx context.Context, key string, data []byte) (string, error) {
	_, err := a.mc.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return a.bucket + "/" + key, nil
}

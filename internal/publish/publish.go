// Package publish uploads exported reports to S3-compatible storage.
package publish

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConfigured is returned when no endpoint or credentials are set
var ErrNotConfigured = errors.New("object storage is not configured")

// Options describes the destination bucket
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
	Logger    *slog.Logger
}

// ObjectStore is the part of *minio.Client the publisher uses
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads reports under <release>/<language>/<filename>
type Publisher struct {
	store  ObjectStore
	bucket string
	logger *slog.Logger
}

// New connects to the endpoint in opts
func New(opts Options) (*Publisher, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       opts.Secure,
		Transport:    tr,
		BucketLookup: minio.BucketLookupAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}
	return NewWithStore(client, opts.Bucket, opts.Logger), nil
}

// NewWithStore wraps an existing object store
func NewWithStore(store ObjectStore, bucket string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{store: store, bucket: bucket, logger: logger}
}

// ObjectKey is the object name a report is stored under
func ObjectKey(release, language, filename string) string {
	clean := func(s string) string {
		return strings.Trim(strings.ReplaceAll(s, "\\", "/"), "/")
	}
	return path.Join(clean(release), clean(language), path.Base(clean(filename)))
}

// Publish uploads data and returns the bucket-qualified object name
func (p *Publisher) Publish(ctx context.Context, release, language, filename, contentType string, data []byte) (string, error) {
	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return "", fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if !exists {
		if err := p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("create bucket %s: %w", p.bucket, err)
		}
		p.logger.Info("created bucket", "bucket", p.bucket)
	}

	key := ObjectKey(release, language, filename)
	info, err := p.store.PutObject(ctx, p.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"release":  release,
			"language": language,
		},
	})
	if err != nil {
		var merr minio.ErrorResponse
		if errors.As(err, &merr) {
			p.logger.Warn("upload rejected", "code", merr.Code, "message", merr.Message, "key", key)
		}
		return "", fmt.Errorf("upload %s/%s: %w", p.bucket, key, err)
	}
	if info.Size != int64(len(data)) {
		return "", fmt.Errorf("upload %s/%s: size mismatch, sent %d bytes, stored %d", p.bucket, key, len(data), info.Size)
	}
	return p.bucket + "/" + key, nil
}

package gcp

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

// BucketService reads and writes uploaded document blobs. The upload bucket
// is laid out as userId/docId/filename; the pipeline only ever downloads
// from it, uploads exist for tooling and tests.
type BucketService interface {
	DownloadFile(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	UploadFile(ctx context.Context, bucket, key string, r io.Reader, contentType string) error
	DeleteFile(ctx context.Context, bucket, key string) error
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	defaultBucket string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	ctx := context.Background()
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
	}, nil
}

// Keep the download context alive for the life of the reader; cancel only
// when the caller closes it. Deferring the cancel here would kill the read.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *bucketService) DownloadFile(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("bucket and key required")
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := bs.storageClient.Bucket(bucket).Object(key).NewReader(ctx2)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open GCS reader for %s/%s: %w", bucket, key, err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, bucket, key string, r io.Reader, contentType string) error {
	if bucket == "" || key == "" {
		return fmt.Errorf("bucket and key required")
	}
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bucket).Object(key).NewWriter(ctx2)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, bucket, key string) error {
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.storageClient.Bucket(bucket).Object(key).Delete(ctx2); err != nil {
		return fmt.Errorf("delete GCS object %q in bucket %q: %w", key, bucket, err)
	}
	return nil
}

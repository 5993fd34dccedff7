package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/datatypes"

	"github.com/clauselens/clauselens-backend/internal/clients/gcp"
	"github.com/clauselens/clauselens-backend/internal/clients/redis"
	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/repos"
	"github.com/clauselens/clauselens-backend/internal/types"
)

// PipelineService runs the whole processing sequence for one uploaded file:
// download, extract, classify, ingest, analyze, annotate, persist. It is the
// only writer of document status; each stage reports its result up and the
// orchestrator decides what lands in the record.
type PipelineService interface {
	Process(ctx context.Context, bucket, filePath, mimeType string) (types.UploadStatus, error)
}

type pipelineService struct {
	log      *logger.Logger
	bucket   gcp.BucketService
	lock     redis.DocLockService
	docs     repos.DocumentRepo
	extract  ExtractService
	classify ClassifyService
	ingest   IngestService
	insight  InsightService
	annotate AnnotateService
}

func NewPipelineService(
	log *logger.Logger,
	bucket gcp.BucketService,
	lock redis.DocLockService,
	docs repos.DocumentRepo,
	extract ExtractService,
	classify ClassifyService,
	ingest IngestService,
	insight InsightService,
	annotate AnnotateService,
) PipelineService {
	return &pipelineService{
		log:      log.With("service", "PipelineService"),
		bucket:   bucket,
		lock:     lock,
		docs:     docs,
		extract:  extract,
		classify: classify,
		ingest:   ingest,
		insight:  insight,
		annotate: annotate,
	}
}

// storagePath is the decomposed upload key userId/docId/filename.
type storagePath struct {
	UserID   string
	DocID    string
	FileName string
}

// parseStoragePath validates the upload key layout. A malformed path never
// reaches the document store: there is no record to update.
func parseStoragePath(filePath string) (storagePath, error) {
	parts := strings.Split(filePath, "/")
	if len(parts) < 3 {
		return storagePath{}, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidPath, filePath)
	}
	sp := storagePath{
		UserID:   parts[0],
		DocID:    parts[1],
		FileName: parts[len(parts)-1],
	}
	if sp.UserID == "" || sp.DocID == "" || sp.FileName == "" {
		return storagePath{}, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidPath, filePath)
	}
	return sp, nil
}

func (s *pipelineService) Process(ctx context.Context, bucket, filePath, mimeType string) (types.UploadStatus, error) {
	s.log.Info("Processing uploaded file",
		"bucket", bucket,
		"file_path", filePath,
		"mime_type", mimeType,
	)

	sp, err := parseStoragePath(filePath)
	if err != nil {
		return "", err
	}

	// Serialize concurrent invocations for the same document. Without the
	// lease two invocations would race last-writer-wins on the status row.
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, sp.UserID, sp.DocID)
		if err != nil {
			return "", fmt.Errorf("doc lock: %w", err)
		}
		if !acquired {
			return "", fmt.Errorf("%w: %s/%s", pkgerrors.ErrDocumentBusy, sp.UserID, sp.DocID)
		}
		defer s.lock.Release(ctx, sp.UserID, sp.DocID)
	}

	if _, err := s.docs.Upsert(ctx, nil, &types.Document{
		UserID:       sp.UserID,
		DocID:        sp.DocID,
		FileName:     sp.FileName,
		UploadStatus: types.UploadStatusPending,
	}); err != nil {
		return "", fmt.Errorf("create document record: %w", err)
	}

	// From here on every failure lands in the record as FAILED before it
	// surfaces to the trigger.

	// Reject undecodable MIME types before touching the object store.
	if _, err := fileTypeForMIME(mimeType); err != nil {
		return types.UploadStatusFailed, s.fail(ctx, sp, err)
	}

	data, tempPath, cleanup, err := s.downloadToTemp(ctx, bucket, filePath, sp.FileName)
	if err != nil {
		return types.UploadStatusFailed, s.fail(ctx, sp, err)
	}
	defer cleanup()

	text, fileType, err := s.extract.Extract(ctx, bytes.NewReader(data), mimeType)
	if err != nil {
		return types.UploadStatusFailed, s.fail(ctx, sp, err)
	}

	isLegal, err := s.classify.IsLegalDocument(ctx, text)
	if err != nil {
		return types.UploadStatusFailed, s.fail(ctx, sp, err)
	}
	if !isLegal {
		msg := "Document was classified as not a legal document."
		if err := s.docs.SetStatus(ctx, nil, sp.UserID, sp.DocID, types.UploadStatusRejected, msg); err != nil {
			return "", fmt.Errorf("persist rejection: %w", err)
		}
		s.log.Info("Document rejected", "user_id", sp.UserID, "doc_id", sp.DocID)
		return types.UploadStatusRejected, nil
	}

	// Corpus registration failures are fatal: a completed document the
	// query path cannot retrieve would be a lie.
	if _, err := s.ingest.Ingest(ctx, tempPath, sp.FileName, sp.UserID, sp.DocID); err != nil {
		return types.UploadStatusFailed, s.fail(ctx, sp, err)
	}

	insights, err := s.insight.Generate(ctx, text)
	if err != nil {
		// The corpus keeps the already-ingested file; accepted inconsistency.
		return types.UploadStatusFailed, s.fail(ctx, sp, err)
	}

	annotation, err := s.annotate.Enrich(ctx, data, fileType, insights.KeyTerms)
	if err != nil {
		return types.UploadStatusFailed, s.fail(ctx, sp, err)
	}
	insights.KeyTerms = annotation.KeyTerms

	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		return types.UploadStatusFailed, s.fail(ctx, sp, fmt.Errorf("encode insights: %w", err))
	}

	updates := map[string]any{
		"upload_status":  types.UploadStatusCompleted,
		"status_message": "",
		"file_type":      fileType,
		"file_content":   text,
		"insights":       datatypes.JSON(insightsJSON),
	}
	if annotation.HTMLContent != "" {
		updates["html_content"] = annotation.HTMLContent
	}
	if err := s.docs.CompleteProcessing(ctx, nil, sp.UserID, sp.DocID, updates); err != nil {
		return types.UploadStatusFailed, s.fail(ctx, sp, fmt.Errorf("persist completion: %w", err))
	}

	s.log.Info("Document processing completed", "user_id", sp.UserID, "doc_id", sp.DocID)
	return types.UploadStatusCompleted, nil
}

// fail records the terminal FAILED status with the stage's error text, then
// hands the error back to the trigger. One status write per terminal outcome.
func (s *pipelineService) fail(ctx context.Context, sp storagePath, stageErr error) error {
	s.log.Error("Document processing failed",
		"user_id", sp.UserID,
		"doc_id", sp.DocID,
		"error", stageErr,
	)
	if err := s.docs.SetStatus(ctx, nil, sp.UserID, sp.DocID, types.UploadStatusFailed, stageErr.Error()); err != nil {
		s.log.Error("Failed to persist FAILED status",
			"user_id", sp.UserID,
			"doc_id", sp.DocID,
			"error", err,
		)
	}
	return stageErr
}

// downloadToTemp pulls the blob into memory and mirrors it to a scoped temp
// file (the corpus ingestor wants a local path). The cleanup func removes
// the temp file on every exit path.
func (s *pipelineService) downloadToTemp(ctx context.Context, bucket, key, fileName string) ([]byte, string, func(), error) {
	noop := func() {}

	rc, err := s.bucket.DownloadFile(ctx, bucket, key)
	if err != nil {
		return nil, "", noop, fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", noop, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}

	tmp, err := os.CreateTemp("", "clauselens-*"+filepath.Ext(fileName))
	if err != nil {
		return nil, "", noop, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, "", noop, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, "", noop, fmt.Errorf("close temp file: %w", err)
	}

	cleanup := func() { _ = os.Remove(tmp.Name()) }
	return data, tmp.Name(), cleanup, nil
}

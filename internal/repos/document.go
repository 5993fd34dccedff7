package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/types"
)

// DocumentRepo persists Document rows keyed by (user_id, doc_id).
type DocumentRepo interface {
	// Upsert creates the row for a fresh upload, or resets an existing row
	// back to PENDING when the same doc id is reprocessed. The reset clears
	// every content field from the prior run (insights, html, text, type):
	// a rerun that ends REJECTED or FAILED must not keep stale insights
	// around, since insights are only valid on a COMPLETED record.
	Upsert(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error)
	GetByOwner(ctx context.Context, tx *gorm.DB, userID, docID string) (*types.Document, error)
	// SetStatus writes a terminal or intermediate status plus its message.
	SetStatus(ctx context.Context, tx *gorm.DB, userID, docID string, status types.UploadStatus, message string) error
	// CompleteProcessing applies the single terminal COMPLETED update:
	// status, extracted content, file type, insights and optional html in
	// one write.
	CompleteProcessing(ctx context.Context, tx *gorm.DB, userID, docID string, updates map[string]any) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *documentRepo) Upsert(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
	if doc == nil || doc.UserID == "" || doc.DocID == "" {
		return nil, fmt.Errorf("document requires user_id and doc_id")
	}
	if doc.UploadStatus == "" {
		doc.UploadStatus = types.UploadStatusPending
	}
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "doc_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"upload_status":  doc.UploadStatus,
				"status_message": "",
				"file_name":      doc.FileName,
				"file_type":      "",
				"file_content":   "",
				"html_content":   "",
				"insights":       nil,
			}),
		}).
		Create(doc).Error
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByOwner(ctx context.Context, tx *gorm.DB, userID, docID string) (*types.Document, error) {
	var doc types.Document
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND doc_id = ?", userID, docID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) SetStatus(ctx context.Context, tx *gorm.DB, userID, docID string, status types.UploadStatus, message string) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Document{}).
		Where("user_id = ? AND doc_id = ?", userID, docID).
		Updates(map[string]any{
			"upload_status":  status,
			"status_message": message,
		}).Error
}

func (r *documentRepo) CompleteProcessing(ctx context.Context, tx *gorm.DB, userID, docID string, updates map[string]any) error {
	if len(updates) == 0 {
		return fmt.Errorf("empty completion update")
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.Document{}).
		Where("user_id = ? AND doc_id = ?", userID, docID).
		Updates(updates).Error
}

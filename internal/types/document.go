package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "PENDING"
	UploadStatusCompleted UploadStatus = "COMPLETED"
	UploadStatusRejected  UploadStatus = "REJECTED"
	UploadStatusFailed    UploadStatus = "FAILED"
)

type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDocx FileType = "docx"
	FileTypeTxt  FileType = "txt"
)

// Document is one uploaded file owned by one user. The (UserID, DocID) pair
// mirrors the users/{userId}/documents/{docId} layout of the persisted-state
// contract; only the processing pipeline mutates a row after creation, and a
// terminal row is never mutated again except by a fresh upload under a new
// doc id.
type Document struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        string         `gorm:"column:user_id;not null;index:idx_document_owner,unique,priority:1" json:"user_id"`
	DocID         string         `gorm:"column:doc_id;not null;index:idx_document_owner,unique,priority:2" json:"doc_id"`
	FileName      string         `gorm:"column:file_name" json:"file_name,omitempty"`
	UploadStatus  UploadStatus   `gorm:"column:upload_status;not null;default:'PENDING'" json:"upload_status"`
	StatusMessage string         `gorm:"column:status_message" json:"status_message,omitempty"`
	FileType      FileType       `gorm:"column:file_type" json:"file_type,omitempty"`
	FileContent   string         `gorm:"column:file_content;type:text" json:"file_content,omitempty"`
	HTMLContent   string         `gorm:"column:html_content;type:text" json:"html_content,omitempty"`
	Insights      datatypes.JSON `gorm:"column:insights;type:jsonb" json:"insights,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string { return "document" }

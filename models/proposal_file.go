package models

import "time"

// ProposalFile is the metadata row for one uploaded proposal document.
// Binary storage is a local write under UPLOAD_PATH with a uuid stored name.
type ProposalFile struct {
	FileID       int        `gorm:"primaryKey;column:file_id" json:"file_id"`
	ProposalID   int        `gorm:"column:proposal_id" json:"proposal_id"`
	OriginalName string     `gorm:"column:original_name" json:"original_name"`
	StoredName   string     `gorm:"column:stored_name" json:"stored_name"`
	FileSize     int64      `gorm:"column:file_size" json:"file_size"`
	MimeType     string     `gorm:"column:mime_type" json:"mime_type"`
	UploadedBy   int        `gorm:"column:uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time  `gorm:"column:uploaded_at" json:"uploaded_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Uploader *User `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

// IsValidDocumentType restricts revision/proposal uploads to PDF, the
// format DIKTI accepts.
func (f *ProposalFile) IsValidDocumentType() bool {
	return f.MimeType == "application/pdf"
}

func (ProposalFile) TableName() string {
	return "proposal_files"
}

package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/scholartrack/backend/internal/dto"
)

// Document is the metadata row for one uploaded file; the bytes live in the
// blob store under FileID.
type Document struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ApplicationID *uuid.UUID `gorm:"type:uuid;index" json:"application_id,omitempty"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	OriginalName  string     `gorm:"size:255;not null" json:"original_name"`
	Type          string     `gorm:"size:50;not null;index" json:"type"`
	MimeType      string     `gorm:"size:100;not null" json:"mime_type"`
	Size          int64      `gorm:"not null" json:"size"`
	FileID        uuid.UUID  `gorm:"type:uuid;not null" json:"-"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

const (
	TypeCV          = "CV"
	TypeCoverLetter = "Lettre de motivation"
	TypeTranscript  = "Relevé de notes"
	TypeDiploma     = "Diplôme"
	TypePassport    = "Passeport"
	TypePhoto       = "Photo"
	TypeOther       = "Autre"

	// TypeFilterAll in a list query means no type filtering.
	TypeFilterAll = "Tous"
)

var Types = []string{
	TypeCV,
	TypeCoverLetter,
	TypeTranscript,
	TypeDiploma,
	TypePassport,
	TypePhoto,
	TypeOther,
}

// MaxFileSize is the upload cap, enforced server-side.
const MaxFileSize = 10 * 1024 * 1024

// --- DTOs ---

type UploadMeta struct {
	Type          string
	Description   string
	ApplicationID *uuid.UUID
}

// DocumentView is the response shape; User is only set for admin callers.
type DocumentView struct {
	Document
	User *dto.OwnerInfo `json:"user,omitempty"`
}

type ListDocumentsResponse struct {
	Documents []DocumentView `json:"documents"`
	Total     int64          `json:"total"`
}

// FileDownload carries the blob bytes back to the handler.
type FileDownload struct {
	Data         []byte
	MimeType     string
	OriginalName string
}

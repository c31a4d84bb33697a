package applications

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/scholartrack/backend/internal/dto"
)

// Application is one university or scholarship attempt owned by a user.
// Documents is the embedded checklist; StatusHistory is the append-only log
// of status transitions and always contains at least the creation entry.
type Application struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Type           string         `gorm:"size:20;not null" json:"type"`
	Program        string         `gorm:"size:255" json:"program,omitempty"`
	Country        string         `gorm:"size:100;not null" json:"country"`
	City           string         `gorm:"size:100" json:"city,omitempty"`
	Deadline       time.Time      `gorm:"not null;index" json:"deadline"`
	Status         string         `gorm:"size:20;default:'En cours';index" json:"status"`
	SubmittedDate  *time.Time     `json:"submitted_date,omitempty"`
	Amount         *float64       `json:"amount,omitempty"`
	ApplicationFee *float64       `json:"application_fee,omitempty"`
	Website        string         `gorm:"size:500" json:"website,omitempty"`
	Notes          string         `gorm:"type:text" json:"notes,omitempty"`
	Documents      datatypes.JSON `gorm:"type:jsonb" json:"documents"`
	StatusHistory  datatypes.JSON `gorm:"type:jsonb" json:"status_history"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// DocumentItem is a checklist entry inside an application.
type DocumentItem struct {
	Name          string     `json:"name"`
	Completed     bool       `json:"completed"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

// StatusHistoryItem records one status transition.
type StatusHistoryItem struct {
	Status string    `json:"status"`
	Date   time.Time `json:"date"`
	Note   string    `json:"note,omitempty"`
}

const (
	TypeUniversity  = "Université"
	TypeScholarship = "Bourse"

	StatusInProgress = "En cours"
	StatusSubmitted  = "Soumise"
	StatusInReview   = "En révision"
	StatusAccepted   = "Acceptée"
	StatusRejected   = "Refusée"
	StatusWaiting    = "En attente"
)

var Types = []string{TypeUniversity, TypeScholarship}

var Statuses = []string{
	StatusInProgress,
	StatusSubmitted,
	StatusInReview,
	StatusAccepted,
	StatusRejected,
	StatusWaiting,
}

// --- DTOs ---

type CreateApplicationRequest struct {
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	Program        string         `json:"program"`
	Country        string         `json:"country"`
	City           string         `json:"city"`
	Deadline       string         `json:"deadline"`
	Status         string         `json:"status"`
	SubmittedDate  string         `json:"submitted_date"`
	Amount         *float64       `json:"amount"`
	ApplicationFee *float64       `json:"application_fee"`
	Website        string         `json:"website"`
	Notes          string         `json:"notes"`
	Documents      []DocumentItem `json:"documents"`
}

// UpdateApplicationRequest is a partial update. StatusNote is attached to the
// history entry appended when Status actually changes; the history itself is
// never writable from the outside.
type UpdateApplicationRequest struct {
	Name           *string         `json:"name"`
	Type           *string         `json:"type"`
	Program        *string         `json:"program"`
	Country        *string         `json:"country"`
	City           *string         `json:"city"`
	Deadline       *string         `json:"deadline"`
	Status         *string         `json:"status"`
	StatusNote     string          `json:"status_note"`
	SubmittedDate  *string         `json:"submitted_date"`
	Amount         *float64        `json:"amount"`
	ApplicationFee *float64        `json:"application_fee"`
	Website        *string         `json:"website"`
	Notes          *string         `json:"notes"`
	Documents      *[]DocumentItem `json:"documents"`
}

// ApplicationView is the response shape; User is only set for admin callers.
type ApplicationView struct {
	Application
	User *dto.OwnerInfo `json:"user,omitempty"`
}

type ListApplicationsResponse struct {
	Applications []ApplicationView `json:"applications"`
	Total        int64             `json:"total"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account holder. ResetPasswordToken stores the sha256 hex of the
// raw reset token, never the token itself.
type User struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email                string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name                 string     `gorm:"size:255;not null" json:"name"`
	Password             string     `gorm:"not null" json:"-"`
	Role                 string     `gorm:"size:20;default:'user'" json:"role"`
	ResetPasswordToken   *string    `gorm:"size:64;index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

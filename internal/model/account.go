package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Preferences holds free-form per-account editor settings.
type Preferences map[string]interface{}

// Account represents a registered author of email templates.
type Account struct {
	ID           uuid.UUID   `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string      `json:"name" gorm:"size:255;not null;index"`
	Email        string      `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string      `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role        `json:"role" gorm:"size:20;not null;default:'user';index"`
	Active       bool        `json:"active" gorm:"not null;default:true;index"`
	LastLoginAt  *time.Time  `json:"lastLoginAt,omitempty"`
	Preferences  Preferences `json:"preferences,omitempty" gorm:"serializer:json;type:json"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Role == "" {
		a.Role = RoleUser
	}
	return nil
}

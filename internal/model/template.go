package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCategory is assigned to templates created without a category.
const DefaultCategory = "general"

// Component is one block of a template layout. The editor owns its shape;
// the backend only persists it and renders previews.
type Component struct {
	ID      string                 `json:"id,omitempty"`
	Type    string                 `json:"type"`
	Content string                 `json:"content,omitempty"`
	Props   map[string]interface{} `json:"props,omitempty"`
}

// Template is an email template authored by an account.
type Template struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Name          string          `json:"name" gorm:"size:255;not null;index"`
	Subject       string          `json:"subject" gorm:"size:500"`
	OwnerID       uuid.UUID       `json:"ownerId" gorm:"type:char(36);not null;index"`
	IsPublic      bool            `json:"isPublic" gorm:"not null;default:false;index"`
	IsPremium     bool            `json:"isPremium" gorm:"not null;default:false;index"`
	Category      string          `json:"category" gorm:"size:100;not null;index"`
	Tags          []string        `json:"tags" gorm:"serializer:json;type:json"`
	Components    []Component     `json:"components" gorm:"serializer:json;type:json"`
	Active        bool            `json:"active" gorm:"not null;default:true;index"`
	Rating        decimal.Decimal `json:"rating" gorm:"type:decimal(3,2);not null;default:0"`
	RatingCount   int             `json:"ratingCount" gorm:"not null;default:0"`
	FavoriteCount int             `json:"favoriteCount" gorm:"not null;default:0"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	Owner *Account `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether the template belongs to the given account.
func (t *Template) OwnedBy(accountID uuid.UUID) bool {
	return t.OwnerID == accountID
}

// TemplateFavorite links an account to a template it marked as favorite.
type TemplateFavorite struct {
	TemplateID uuid.UUID `json:"templateId" gorm:"type:char(36);primaryKey"`
	AccountID  uuid.UUID `json:"accountId" gorm:"type:char(36);primaryKey;index"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TemplateRating is a single account's score for a template.
type TemplateRating struct {
	TemplateID uuid.UUID `json:"templateId" gorm:"type:char(36);primaryKey"`
	AccountID  uuid.UUID `json:"accountId" gorm:"type:char(36);primaryKey;index"`
	Value      int       `json:"value" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

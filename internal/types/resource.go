package types

import (
	"time"

	"github.com/google/uuid"
)

// Resource is the payload of a resource-type activity: a link to external
// learning material, usually harvested from a campus repository.
type Resource struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	URL         string    `gorm:"column:url" json:"url"`
	Format      string    `gorm:"column:format" json:"format"`
	Source      string    `gorm:"column:source" json:"source"`
	OriginID    *uuid.UUID `gorm:"type:uuid;index" json:"origin_id,omitempty"`
	Origin      *Origin    `gorm:"constraint:OnDelete:CASCADE;foreignKey:OriginID;references:ID" json:"origin,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Resource) TableName() string { return "resource" }

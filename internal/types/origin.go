package types

import (
	"time"

	"github.com/google/uuid"
)

// Origin is an external tenant, typically one campus installation of the
// study assistant. Everything a user owns is scoped to exactly one Origin
// and is removed with it.
type Origin struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Location  string    `gorm:"column:location" json:"location"`
	Type      string    `gorm:"column:type" json:"type"`
	Endpoint  string    `gorm:"uniqueIndex;not null;column:endpoint" json:"endpoint"`
	APIKey    string    `gorm:"not null;column:api_key" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Origin) TableName() string { return "origin" }

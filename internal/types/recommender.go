package types

import (
	"time"

	"github.com/google/uuid"
)

// Recommender is the identity record of a plugin. It is created lazily the
// first time the plugin is instantiated; Active gates whether it is ever
// offered to users.
type Recommender struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	ClassName   string    `gorm:"uniqueIndex;not null;column:class_name" json:"class_name"`
	Description string    `gorm:"column:description" json:"description"`
	Image       string    `gorm:"column:image" json:"image"`
	Order       int       `gorm:"uniqueIndex;not null;column:display_order" json:"order"`
	DataInfo    string    `gorm:"column:data_info" json:"data_info"`
	Active      bool      `gorm:"column:active;not null" json:"active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Recommender) TableName() string { return "recommender" }

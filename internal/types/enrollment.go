package types

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment pairs a User with a Recommender, at most once per pair. It owns
// every Goal the recommender creates for that user; Enabled decides whether
// those goals are shown at all.
type Enrollment struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_rec" json:"user_id"`
	User          *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	RecommenderID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_rec" json:"recommender_id"`
	Recommender   *Recommender `gorm:"constraint:OnDelete:CASCADE;foreignKey:RecommenderID;references:ID" json:"recommender,omitempty"`
	Enabled       bool         `gorm:"column:enabled;not null;default:false" json:"enabled"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

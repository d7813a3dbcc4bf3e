package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Goal is a named, ordered bucket of Activities under one Enrollment.
// Order is unique within the enrollment.
type Goal struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_goal_enrollment_order" json:"enrollment_id"`
	Enrollment   *Enrollment `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"enrollment,omitempty"`
	Title        string      `gorm:"not null;column:title" json:"title"`
	Description  string      `gorm:"column:description" json:"description"`
	Order        int64       `gorm:"not null;uniqueIndex:idx_goal_enrollment_order;column:display_order" json:"order"`
	Type         string      `gorm:"column:type" json:"type"`
	Visible      bool        `gorm:"column:visible;not null" json:"visible"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updated_at"`
}

func (Goal) TableName() string { return "goal" }

// GoalProperty mirrors the UserProperty contract, scoped to one goal.
type GoalProperty struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"goal_id"`
	Goal      *Goal          `gorm:"constraint:OnDelete:CASCADE;foreignKey:GoalID;references:ID" json:"goal,omitempty"`
	Key       string         `gorm:"not null;column:key" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb" json:"value"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (GoalProperty) TableName() string { return "goal_property" }

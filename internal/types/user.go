package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User is identified by (origin, origin-local user id); the backend never
// sees campus credentials, only the opaque per-origin identifier.
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OriginID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_origin_uid" json:"origin_id"`
	Origin          *Origin   `gorm:"constraint:OnDelete:CASCADE;foreignKey:OriginID;references:ID" json:"origin,omitempty"`
	OriginUID       string    `gorm:"not null;uniqueIndex:idx_user_origin_uid;column:origin_uid" json:"origin_uid"`
	Email           string    `gorm:"column:email" json:"email,omitempty"`
	DataDonation    bool      `gorm:"column:data_donation;not null;default:false" json:"data_donation"`
	DataRegulations bool      `gorm:"column:data_regulations;not null;default:false" json:"data_regulations"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

// UserProperty is a free-form key/value record on a user. The key is meant
// to be unique per user but no constraint enforces it; duplicates are a
// data-integrity violation that readers log and resolve deterministically.
type UserProperty struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Key       string         `gorm:"not null;column:key" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb" json:"value"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (UserProperty) TableName() string { return "user_property" }

package types

import (
	"time"

	"github.com/google/uuid"
)

// Person is the payload of a person-type activity, e.g. a contact suggestion.
type Person struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Title     string    `gorm:"column:title" json:"title"`
	Email     string    `gorm:"column:email" json:"email"`
	Role      string    `gorm:"column:role" json:"role"`
	Image     string    `gorm:"column:image" json:"image"`
	URL       string    `gorm:"column:url" json:"url"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Person) TableName() string { return "person" }

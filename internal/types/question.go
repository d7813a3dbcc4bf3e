package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Question is the payload of a question-type activity: the question text,
// how it may be answered and, for selection questions, the choices.
type Question struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Text         string         `gorm:"not null;column:text" json:"text"`
	AnswerType   string         `gorm:"not null;column:answer_type" json:"answer_type"`
	Selection    datatypes.JSON `gorm:"column:selection;type:jsonb" json:"selection"`
	MultiAnswers bool           `gorm:"column:multi_answers;not null;default:false" json:"multi_answers"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

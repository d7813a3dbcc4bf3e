package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity statuses. Template is not a user-facing state: a row with status
// "template" is a reusable definition, never shown, only instantiated from.
const (
	StatusNew       = "new"
	StatusActive    = "active"
	StatusSnoozed   = "snoozed"
	StatusDone      = "done"
	StatusDiscarded = "discarded"
	StatusImmortal  = "immortal"
	StatusTemplate  = "template"
)

// Activity types (fixed vocabulary).
const (
	TypeTodo     = "todo"
	TypeQuestion = "question"
	TypeResource = "resource"
	TypeCourse   = "course"
	TypeEvent    = "event"
	TypePerson   = "person"
	TypeIframe   = "iframe"
)

// Activity is the atomic unit of interaction shown to a user. A template is
// the same row shape with Status "template", a globally unique TemplateID and
// no goal. Instances point back at their template through TemplateRef and
// resolve the dynamic attributes through it at read time (see siddata.Resolve).
type Activity struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID      *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_activity_goal_order" json:"goal_id,omitempty"`
	Goal        *Goal      `gorm:"constraint:OnDelete:CASCADE;foreignKey:GoalID;references:ID" json:"goal,omitempty"`
	Title       string     `gorm:"not null;column:title" json:"title"`
	Description string     `gorm:"column:description" json:"description"`
	Type        string     `gorm:"not null;column:type" json:"type"`
	Status      string     `gorm:"not null;column:status" json:"status"`
	Order       int64      `gorm:"not null;uniqueIndex:idx_activity_goal_order;column:display_order" json:"order"`

	QuestionID *uuid.UUID `gorm:"type:uuid" json:"question_id,omitempty"`
	Question   *Question  `gorm:"constraint:OnDelete:SET NULL;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	ResourceID *uuid.UUID `gorm:"type:uuid" json:"resource_id,omitempty"`
	Resource   *Resource  `gorm:"constraint:OnDelete:SET NULL;foreignKey:ResourceID;references:ID" json:"resource,omitempty"`
	PersonID   *uuid.UUID `gorm:"type:uuid" json:"person_id,omitempty"`
	Person     *Person    `gorm:"constraint:OnDelete:SET NULL;foreignKey:PersonID;references:ID" json:"person,omitempty"`

	Answers       datatypes.JSON `gorm:"column:answers;type:jsonb" json:"answers"`
	FeedbackSize  int            `gorm:"column:feedback_size;not null;default:0" json:"feedback_size"`
	FeedbackValue *int           `gorm:"column:feedback_value" json:"feedback_value,omitempty"`
	FeedbackText  string         `gorm:"column:feedback_text" json:"feedback_text"`

	Notes      string     `gorm:"column:notes" json:"notes"`
	DueDate    *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	Form       int64      `gorm:"column:form;not null;default:0" json:"form"`
	Image      string     `gorm:"column:image" json:"image"`
	ColorTheme string     `gorm:"column:color_theme" json:"color_theme"`
	ButtonText string     `gorm:"column:button_text" json:"button_text"`

	Rebirth bool `gorm:"column:rebirth;not null;default:false" json:"rebirth"`

	// TemplateID is set on template rows only and is globally unique.
	// TemplateRef on an instance names the template it was created from.
	TemplateID  *string `gorm:"uniqueIndex;column:template_id" json:"template_id,omitempty"`
	TemplateRef *string `gorm:"column:template_ref;index" json:"template_ref,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Activity) TableName() string { return "activity" }

// IsTemplate reports whether the row is a reusable template rather than a
// user-facing activity.
func (a *Activity) IsTemplate() bool {
	return a.Status == StatusTemplate
}

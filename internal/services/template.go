package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/repos"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

// Overrides carries the per-instance values a plugin pins at instantiation
// time. Nil fields keep the value copied from the template.
type Overrides struct {
	Title        *string
	Description  *string
	Type         *string
	QuestionID   *uuid.UUID
	ResourceID   *uuid.UUID
	PersonID     *uuid.UUID
	FeedbackSize *int
	Notes        *string
	DueDate      *time.Time
	Order        *int64
	Form         *int64
	Image        *string
	ColorTheme   *string
	ButtonText   *string
	Rebirth      *bool
}

type TemplateService interface {
	// Upsert writes a template keyed by its template id; last write wins.
	Upsert(ctx context.Context, tmpl *types.Activity) (*types.Activity, error)
	Get(ctx context.Context, templateID string) (*types.Activity, error)
	// Resolve returns the activity with its dynamic attributes resolved
	// against its template, if it has one.
	Resolve(ctx context.Context, activity *types.Activity) (types.Activity, error)
	// Instantiate creates (or finds) the activity produced by a template
	// under a goal. An unknown template id is fatal to the operation.
	Instantiate(ctx context.Context, templateID string, goal *types.Goal, ov Overrides) (*types.Activity, error)
}

type templateService struct {
	db         *gorm.DB
	activities repos.ActivityRepo
	// strict turns the form-consistency warning into an error. Meant for
	// development setups only.
	strict bool
	log    *logger.Logger
}

func NewTemplateService(db *gorm.DB, activities repos.ActivityRepo, strict bool, baseLog *logger.Logger) TemplateService {
	return &templateService{
		db:         db,
		activities: activities,
		strict:     strict,
		log:        baseLog.With("service", "TemplateService"),
	}
}

func (s *templateService) Upsert(ctx context.Context, tmpl *types.Activity) (*types.Activity, error) {
	return s.activities.UpsertTemplate(ctx, nil, tmpl)
}

func (s *templateService) Get(ctx context.Context, templateID string) (*types.Activity, error) {
	return s.activities.GetTemplate(ctx, nil, templateID)
}

func (s *templateService) Resolve(ctx context.Context, activity *types.Activity) (types.Activity, error) {
	if activity.TemplateRef == nil {
		return *activity, nil
	}
	tmpl, err := s.activities.GetTemplate(ctx, nil, *activity.TemplateRef)
	if err != nil {
		return types.Activity{}, fmt.Errorf("resolve template %s: %w", *activity.TemplateRef, err)
	}
	return siddata.Resolve(activity, tmpl), nil
}

func (s *templateService) Instantiate(ctx context.Context, templateID string, goal *types.Goal, ov Overrides) (*types.Activity, error) {
	tmpl, err := s.activities.GetTemplate(ctx, nil, templateID)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", templateID, err)
	}

	instance := &types.Activity{
		GoalID:       &goal.ID,
		TemplateRef:  &templateID,
		Status:       types.StatusNew,
		Title:        tmpl.Title,
		Description:  tmpl.Description,
		Type:         tmpl.Type,
		QuestionID:   tmpl.QuestionID,
		ResourceID:   tmpl.ResourceID,
		PersonID:     tmpl.PersonID,
		FeedbackSize: tmpl.FeedbackSize,
		Notes:        tmpl.Notes,
		DueDate:      tmpl.DueDate,
		Form:         tmpl.Form,
		Image:        tmpl.Image,
		ColorTheme:   tmpl.ColorTheme,
		ButtonText:   tmpl.ButtonText,
		Rebirth:      tmpl.Rebirth,
	}
	applyOverrides(instance, ov)

	if instance.Form != 0 {
		if err := s.checkFormConsistency(ctx, goal.ID, instance); err != nil {
			return nil, err
		}
	}

	created, fresh, err := s.activities.FindOrCreateInstance(ctx, nil, instance, ov.Order != nil)
	if err != nil {
		return nil, err
	}
	if fresh {
		s.log.Debug("instantiated template", "template_id", templateID, "goal_id", goal.ID, "activity_id", created.ID)
	}
	return created, nil
}

// checkFormConsistency verifies that every activity sharing the (goal, form)
// grouping key agrees on the attributes a form renders uniformly. In
// production a mismatch is logged and tolerated; under strict mode it fails
// the instantiation.
func (s *templateService) checkFormConsistency(ctx context.Context, goalID uuid.UUID, instance *types.Activity) error {
	members, err := s.activities.ListByGoalAndForm(ctx, nil, goalID, instance.Form)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.FeedbackSize == instance.FeedbackSize && m.ButtonText == instance.ButtonText && m.Title == instance.Title {
			continue
		}
		if s.strict {
			return fmt.Errorf("form %d in goal %s is not uniform: activity %s disagrees on feedback_size/button_text/title",
				instance.Form, goalID, m.ID)
		}
		s.log.Warn("form members disagree on shared attributes",
			"goal_id", goalID, "form", instance.Form, "activity_id", m.ID)
	}
	return nil
}

func applyOverrides(a *types.Activity, ov Overrides) {
	if ov.Title != nil {
		a.Title = *ov.Title
	}
	if ov.Description != nil {
		a.Description = *ov.Description
	}
	if ov.Type != nil {
		a.Type = *ov.Type
	}
	if ov.QuestionID != nil {
		a.QuestionID = ov.QuestionID
	}
	if ov.ResourceID != nil {
		a.ResourceID = ov.ResourceID
	}
	if ov.PersonID != nil {
		a.PersonID = ov.PersonID
	}
	if ov.FeedbackSize != nil {
		a.FeedbackSize = *ov.FeedbackSize
	}
	if ov.Notes != nil {
		a.Notes = *ov.Notes
	}
	if ov.DueDate != nil {
		a.DueDate = ov.DueDate
	}
	if ov.Order != nil {
		a.Order = *ov.Order
	}
	if ov.Form != nil {
		a.Form = *ov.Form
	}
	if ov.Image != nil {
		a.Image = *ov.Image
	}
	if ov.ColorTheme != nil {
		a.ColorTheme = *ov.ColorTheme
	}
	if ov.ButtonText != nil {
		a.ButtonText = *ov.ButtonText
	}
	if ov.Rebirth != nil {
		a.Rebirth = *ov.Rebirth
	}
}

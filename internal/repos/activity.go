package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

type ActivityRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Activity, error)
	Update(ctx context.Context, tx *gorm.DB, activity *types.Activity) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.Activity, error)
	ListByGoalAndForm(ctx context.Context, tx *gorm.DB, goalID uuid.UUID, form int64) ([]*types.Activity, error)
	ListByTemplateRef(ctx context.Context, tx *gorm.DB, templateRef string) ([]*types.Activity, error)
	ListDue(ctx context.Context, tx *gorm.DB, before time.Time) ([]*types.Activity, error)
	MaxOrder(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) (int64, error)

	// GetTemplate looks up a template row by its globally unique id.
	GetTemplate(ctx context.Context, tx *gorm.DB, templateID string) (*types.Activity, error)
	// UpsertTemplate writes a template keyed by template id, last write
	// wins. The row keeps its primary key across upserts.
	UpsertTemplate(ctx context.Context, tx *gorm.DB, tmpl *types.Activity) (*types.Activity, error)

	// FindOrCreateInstance implements the instantiation idempotence
	// contract: the identity of an instance is its goal, its template ref
	// and the full set of dynamic attributes (order included only when the
	// caller pinned it). A miss creates the row, allocating the next free
	// order when none was pinned and retrying a colliding order exactly
	// once.
	FindOrCreateInstance(ctx context.Context, tx *gorm.DB, activity *types.Activity, matchOrder bool) (*types.Activity, bool, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Activity, error) {
	if tx == nil {
		tx = r.db
	}
	var a types.Activity
	if err := tx.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *activityRepo) Update(ctx context.Context, tx *gorm.DB, activity *types.Activity) error {
	if tx == nil {
		tx = r.db
	}
	return translate(tx.WithContext(ctx).Save(activity).Error)
}

func (r *activityRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	return translate(tx.WithContext(ctx).Delete(&types.Activity{}, "id = ?", id).Error)
}

func (r *activityRepo) ListByGoal(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.Activity, error) {
	if tx == nil {
		tx = r.db
	}
	var activities []*types.Activity
	err := tx.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("display_order").
		Find(&activities).Error
	if err != nil {
		return nil, translate(err)
	}
	return activities, nil
}

func (r *activityRepo) ListByGoalAndForm(ctx context.Context, tx *gorm.DB, goalID uuid.UUID, form int64) ([]*types.Activity, error) {
	if tx == nil {
		tx = r.db
	}
	var activities []*types.Activity
	err := tx.WithContext(ctx).
		Where("goal_id = ? AND form = ?", goalID, form).
		Order("display_order").
		Find(&activities).Error
	if err != nil {
		return nil, translate(err)
	}
	return activities, nil
}

func (r *activityRepo) ListByTemplateRef(ctx context.Context, tx *gorm.DB, templateRef string) ([]*types.Activity, error) {
	if tx == nil {
		tx = r.db
	}
	var activities []*types.Activity
	err := tx.WithContext(ctx).
		Where("template_ref = ?", templateRef).
		Find(&activities).Error
	if err != nil {
		return nil, translate(err)
	}
	return activities, nil
}

// ListDue returns open activities whose due date has passed, for the
// periodic nudge run.
func (r *activityRepo) ListDue(ctx context.Context, tx *gorm.DB, before time.Time) ([]*types.Activity, error) {
	if tx == nil {
		tx = r.db
	}
	var activities []*types.Activity
	err := tx.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date < ? AND status IN ?", before,
			[]string{types.StatusNew, types.StatusActive}).
		Find(&activities).Error
	if err != nil {
		return nil, translate(err)
	}
	return activities, nil
}

func (r *activityRepo) MaxOrder(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var max int64
	err := tx.WithContext(ctx).
		Model(&types.Activity{}).
		Where("goal_id = ?", goalID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, translate(err)
	}
	return max, nil
}

func (r *activityRepo) GetTemplate(ctx context.Context, tx *gorm.DB, templateID string) (*types.Activity, error) {
	if tx == nil {
		tx = r.db
	}
	var tmpl types.Activity
	err := tx.WithContext(ctx).
		First(&tmpl, "template_id = ? AND status = ?", templateID, types.StatusTemplate).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tmpl, nil
}

func (r *activityRepo) UpsertTemplate(ctx context.Context, tx *gorm.DB, tmpl *types.Activity) (*types.Activity, error) {
	if tx == nil {
		tx = r.db
	}
	if tmpl.TemplateID == nil || *tmpl.TemplateID == "" {
		return nil, errors.New("template id is required")
	}
	tmpl.Status = types.StatusTemplate

	existing, err := r.GetTemplate(ctx, tx, *tmpl.TemplateID)
	if err == nil {
		tmpl.ID = existing.ID
		tmpl.CreatedAt = existing.CreatedAt
		if err := translate(tx.WithContext(ctx).Save(tmpl).Error); err != nil {
			return nil, err
		}
		return tmpl, nil
	}
	if !errors.Is(err, siddata.ErrNotFound) {
		return nil, err
	}
	createErr := translate(tx.WithContext(ctx).Create(tmpl).Error)
	if createErr == nil {
		return tmpl, nil
	}
	if errors.Is(createErr, siddata.ErrConstraintViolation) {
		// Lost an upsert race; the winner's row is authoritative.
		return r.GetTemplate(ctx, tx, *tmpl.TemplateID)
	}
	return nil, createErr
}

func (r *activityRepo) FindOrCreateInstance(ctx context.Context, tx *gorm.DB, activity *types.Activity, matchOrder bool) (*types.Activity, bool, error) {
	if tx == nil {
		tx = r.db
	}
	existing, err := r.findByIdentity(ctx, tx, activity, matchOrder)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, siddata.ErrNotFound) {
		return nil, false, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		if !matchOrder && activity.Order == 0 && activity.GoalID != nil {
			max, err := r.MaxOrder(ctx, tx, *activity.GoalID)
			if err != nil {
				return nil, false, err
			}
			activity.Order = max + 1
		}
		createErr := translate(tx.WithContext(ctx).Create(activity).Error)
		if createErr == nil {
			return activity, true, nil
		}
		if !errors.Is(createErr, siddata.ErrConstraintViolation) {
			return nil, false, createErr
		}
		if matchOrder {
			// The caller pinned the order; a collision is theirs to handle.
			return nil, false, createErr
		}
		r.log.Warn("activity order collision, retrying with recomputed order",
			"goal_id", activity.GoalID, "order", activity.Order, "attempt", attempt)
		activity.ID = uuid.Nil
		activity.Order = 0
	}
	return nil, false, siddata.ErrConstraintViolation
}

func (r *activityRepo) findByIdentity(ctx context.Context, tx *gorm.DB, activity *types.Activity, matchOrder bool) (*types.Activity, error) {
	conds := map[string]interface{}{
		"goal_id":       activity.GoalID,
		"template_ref":  activity.TemplateRef,
		"title":         activity.Title,
		"description":   activity.Description,
		"type":          activity.Type,
		"question_id":   activity.QuestionID,
		"resource_id":   activity.ResourceID,
		"person_id":     activity.PersonID,
		"feedback_size": activity.FeedbackSize,
		"notes":         activity.Notes,
		"due_date":      activity.DueDate,
		"form":          activity.Form,
		"image":         activity.Image,
		"color_theme":   activity.ColorTheme,
		"button_text":   activity.ButtonText,
	}
	if matchOrder {
		conds["display_order"] = activity.Order
	}
	var found types.Activity
	err := tx.WithContext(ctx).
		Where(conds).
		Where("status <> ?", types.StatusTemplate).
		Order("created_at, id").
		First(&found).Error
	if err != nil {
		return nil, translate(err)
	}
	return &found, nil
}

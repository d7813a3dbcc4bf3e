package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

type GoalRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Goal, error)
	GetByTitle(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, title string) (*types.Goal, error)
	// FindOrCreate keys on (enrollment, title). A new goal is appended at
	// the next free order; an order collision from a concurrent append is
	// retried exactly once with a recomputed order.
	FindOrCreate(ctx context.Context, tx *gorm.DB, goal *types.Goal) (*types.Goal, bool, error)
	Update(ctx context.Context, tx *gorm.DB, goal *types.Goal) error
	ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.Goal, error)
	MaxOrder(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (int64, error)

	SetProperty(ctx context.Context, tx *gorm.DB, goalID uuid.UUID, key string, value datatypes.JSON) error
	GetProperty(ctx context.Context, tx *gorm.DB, goalID uuid.UUID, key string) (*types.GoalProperty, error)
	ListProperties(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.GoalProperty, error)
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	return &goalRepo{db: db, log: baseLog.With("repo", "GoalRepo")}
}

func (r *goalRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Goal, error) {
	if tx == nil {
		tx = r.db
	}
	var goal types.Goal
	if err := tx.WithContext(ctx).First(&goal, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &goal, nil
}

func (r *goalRepo) GetByTitle(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID, title string) (*types.Goal, error) {
	if tx == nil {
		tx = r.db
	}
	var goal types.Goal
	err := tx.WithContext(ctx).
		First(&goal, "enrollment_id = ? AND title = ?", enrollmentID, title).Error
	if err != nil {
		return nil, translate(err)
	}
	return &goal, nil
}

func (r *goalRepo) FindOrCreate(ctx context.Context, tx *gorm.DB, goal *types.Goal) (*types.Goal, bool, error) {
	existing, err := r.GetByTitle(ctx, tx, goal.EnrollmentID, goal.Title)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, siddata.ErrNotFound) {
		return nil, false, err
	}
	if tx == nil {
		tx = r.db
	}
	created, err := r.createWithNextOrder(ctx, tx, goal)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (r *goalRepo) createWithNextOrder(ctx context.Context, tx *gorm.DB, goal *types.Goal) (*types.Goal, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if goal.Order == 0 {
			max, err := r.MaxOrder(ctx, tx, goal.EnrollmentID)
			if err != nil {
				return nil, err
			}
			goal.Order = max + 1
		}
		err := translate(tx.WithContext(ctx).Create(goal).Error)
		if err == nil {
			return goal, nil
		}
		if !errors.Is(err, siddata.ErrConstraintViolation) {
			return nil, err
		}
		r.log.Warn("goal order collision, retrying with recomputed order",
			"enrollment_id", goal.EnrollmentID, "order", goal.Order, "attempt", attempt)
		goal.ID = uuid.Nil
		goal.Order = 0
	}
	return nil, siddata.ErrConstraintViolation
}

func (r *goalRepo) Update(ctx context.Context, tx *gorm.DB, goal *types.Goal) error {
	if tx == nil {
		tx = r.db
	}
	return translate(tx.WithContext(ctx).Save(goal).Error)
}

func (r *goalRepo) ListByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.Goal, error) {
	if tx == nil {
		tx = r.db
	}
	var goals []*types.Goal
	err := tx.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("display_order").
		Find(&goals).Error
	if err != nil {
		return nil, translate(err)
	}
	return goals, nil
}

func (r *goalRepo) MaxOrder(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var max int64
	err := tx.WithContext(ctx).
		Model(&types.Goal{}).
		Where("enrollment_id = ?", enrollmentID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, translate(err)
	}
	return max, nil
}

func (r *goalRepo) SetProperty(ctx context.Context, tx *gorm.DB, goalID uuid.UUID, key string, value datatypes.JSON) error {
	if tx == nil {
		tx = r.db
	}
	existing, err := r.GetProperty(ctx, tx, goalID, key)
	if err != nil && !errors.Is(err, siddata.ErrNotFound) {
		return err
	}
	if existing != nil {
		existing.Value = value
		return translate(tx.WithContext(ctx).Save(existing).Error)
	}
	prop := &types.GoalProperty{GoalID: goalID, Key: key, Value: value}
	return translate(tx.WithContext(ctx).Create(prop).Error)
}

// GetProperty mirrors UserRepo.GetProperty: duplicate keys are logged and
// the oldest row wins.
func (r *goalRepo) GetProperty(ctx context.Context, tx *gorm.DB, goalID uuid.UUID, key string) (*types.GoalProperty, error) {
	if tx == nil {
		tx = r.db
	}
	var props []*types.GoalProperty
	err := tx.WithContext(ctx).
		Where("goal_id = ? AND key = ?", goalID, key).
		Order("created_at, id").
		Find(&props).Error
	if err != nil {
		return nil, translate(err)
	}
	if len(props) == 0 {
		return nil, siddata.ErrNotFound
	}
	if len(props) > 1 {
		r.log.Warn("duplicate goal property key, using oldest row",
			"goal_id", goalID, "key", key, "count", len(props), "error", siddata.ErrDataIntegrity)
	}
	return props[0], nil
}

func (r *goalRepo) ListProperties(ctx context.Context, tx *gorm.DB, goalID uuid.UUID) ([]*types.GoalProperty, error) {
	if tx == nil {
		tx = r.db
	}
	var props []*types.GoalProperty
	err := tx.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("key, created_at").
		Find(&props).Error
	if err != nil {
		return nil, translate(err)
	}
	return props, nil
}

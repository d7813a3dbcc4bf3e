package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

type EnrollmentRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error)
	GetByUserAndRecommender(ctx context.Context, tx *gorm.DB, userID, recommenderID uuid.UUID) (*types.Enrollment, error)
	FindOrCreate(ctx context.Context, tx *gorm.DB, userID, recommenderID uuid.UUID) (*types.Enrollment, error)
	SetEnabled(ctx context.Context, tx *gorm.DB, id uuid.UUID, enabled bool) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Enrollment, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error) {
	if tx == nil {
		tx = r.db
	}
	var enr types.Enrollment
	if err := tx.WithContext(ctx).First(&enr, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &enr, nil
}

func (r *enrollmentRepo) GetByUserAndRecommender(ctx context.Context, tx *gorm.DB, userID, recommenderID uuid.UUID) (*types.Enrollment, error) {
	if tx == nil {
		tx = r.db
	}
	var enr types.Enrollment
	err := tx.WithContext(ctx).
		First(&enr, "user_id = ? AND recommender_id = ?", userID, recommenderID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &enr, nil
}

// FindOrCreate is the idempotence anchor of the activation protocol: one
// enrollment per (user, recommender), enforced by the unique index.
func (r *enrollmentRepo) FindOrCreate(ctx context.Context, tx *gorm.DB, userID, recommenderID uuid.UUID) (*types.Enrollment, error) {
	enr, err := r.GetByUserAndRecommender(ctx, tx, userID, recommenderID)
	if err == nil {
		return enr, nil
	}
	if !errors.Is(err, siddata.ErrNotFound) {
		return nil, err
	}
	if tx == nil {
		tx = r.db
	}
	fresh := &types.Enrollment{UserID: userID, RecommenderID: recommenderID}
	createErr := translate(tx.WithContext(ctx).Create(fresh).Error)
	if createErr == nil {
		return fresh, nil
	}
	if errors.Is(createErr, siddata.ErrConstraintViolation) {
		return r.GetByUserAndRecommender(ctx, tx, userID, recommenderID)
	}
	return nil, createErr
}

func (r *enrollmentRepo) SetEnabled(ctx context.Context, tx *gorm.DB, id uuid.UUID, enabled bool) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).
		Model(&types.Enrollment{}).
		Where("id = ?", id).
		Update("enabled", enabled)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return siddata.ErrNotFound
	}
	return nil
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Enrollment, error) {
	if tx == nil {
		tx = r.db
	}
	var enrs []*types.Enrollment
	err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&enrs).Error
	if err != nil {
		return nil, translate(err)
	}
	return enrs, nil
}

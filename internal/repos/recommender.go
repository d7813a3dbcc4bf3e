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

type RecommenderRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommender, error)
	GetByClassName(ctx context.Context, tx *gorm.DB, className string) (*types.Recommender, error)
	// FindOrCreate materialises the identity record of a plugin on first
	// instantiation, keyed by class name. Display fields are refreshed on
	// every call so code changes win over stale rows.
	FindOrCreate(ctx context.Context, tx *gorm.DB, rec *types.Recommender) (*types.Recommender, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Recommender, error)
}

type recommenderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommenderRepo(db *gorm.DB, baseLog *logger.Logger) RecommenderRepo {
	return &recommenderRepo{db: db, log: baseLog.With("repo", "RecommenderRepo")}
}

func (r *recommenderRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommender, error) {
	if tx == nil {
		tx = r.db
	}
	var rec types.Recommender
	if err := tx.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *recommenderRepo) GetByClassName(ctx context.Context, tx *gorm.DB, className string) (*types.Recommender, error) {
	if tx == nil {
		tx = r.db
	}
	var rec types.Recommender
	if err := tx.WithContext(ctx).First(&rec, "class_name = ?", className).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *recommenderRepo) FindOrCreate(ctx context.Context, tx *gorm.DB, rec *types.Recommender) (*types.Recommender, error) {
	if tx == nil {
		tx = r.db
	}
	existing, err := r.GetByClassName(ctx, tx, rec.ClassName)
	if err == nil {
		existing.Name = rec.Name
		existing.Description = rec.Description
		existing.Image = rec.Image
		existing.Order = rec.Order
		existing.DataInfo = rec.DataInfo
		if err := translate(tx.WithContext(ctx).Save(existing).Error); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, siddata.ErrNotFound) {
		return nil, err
	}
	createErr := translate(tx.WithContext(ctx).Create(rec).Error)
	if createErr == nil {
		return rec, nil
	}
	if errors.Is(createErr, siddata.ErrConstraintViolation) {
		return r.GetByClassName(ctx, tx, rec.ClassName)
	}
	return nil, createErr
}

func (r *recommenderRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Recommender, error) {
	if tx == nil {
		tx = r.db
	}
	var recs []*types.Recommender
	err := tx.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order").
		Find(&recs).Error
	if err != nil {
		return nil, translate(err)
	}
	return recs, nil
}

package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/types"
)

type OriginRepo interface {
	Create(ctx context.Context, tx *gorm.DB, origin *types.Origin) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Origin, error)
	GetByEndpoint(ctx context.Context, tx *gorm.DB, endpoint string) (*types.Origin, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Origin, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type originRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOriginRepo(db *gorm.DB, baseLog *logger.Logger) OriginRepo {
	return &originRepo{db: db, log: baseLog.With("repo", "OriginRepo")}
}

func (r *originRepo) Create(ctx context.Context, tx *gorm.DB, origin *types.Origin) error {
	if tx == nil {
		tx = r.db
	}
	return translate(tx.WithContext(ctx).Create(origin).Error)
}

func (r *originRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Origin, error) {
	if tx == nil {
		tx = r.db
	}
	var origin types.Origin
	if err := tx.WithContext(ctx).First(&origin, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &origin, nil
}

func (r *originRepo) GetByEndpoint(ctx context.Context, tx *gorm.DB, endpoint string) (*types.Origin, error) {
	if tx == nil {
		tx = r.db
	}
	var origin types.Origin
	if err := tx.WithContext(ctx).First(&origin, "endpoint = ?", endpoint).Error; err != nil {
		return nil, translate(err)
	}
	return &origin, nil
}

func (r *originRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Origin, error) {
	if tx == nil {
		tx = r.db
	}
	var origins []*types.Origin
	if err := tx.WithContext(ctx).Order("name").Find(&origins).Error; err != nil {
		return nil, translate(err)
	}
	return origins, nil
}

// Delete removes the origin; users, enrollments, goals and activities scoped
// to it go with it through the FK cascade.
func (r *originRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	return translate(tx.WithContext(ctx).Delete(&types.Origin{}, "id = ?", id).Error)
}

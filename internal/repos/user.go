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

type UserRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error)
	GetByOriginUID(ctx context.Context, tx *gorm.DB, originID uuid.UUID, originUID string) (*types.User, error)
	FindOrCreate(ctx context.Context, tx *gorm.DB, originID uuid.UUID, originUID string) (*types.User, bool, error)
	Update(ctx context.Context, tx *gorm.DB, user *types.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	SetProperty(ctx context.Context, tx *gorm.DB, userID uuid.UUID, key string, value datatypes.JSON) error
	GetProperty(ctx context.Context, tx *gorm.DB, userID uuid.UUID, key string) (*types.UserProperty, error)
	ListProperties(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserProperty, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	if tx == nil {
		tx = r.db
	}
	var user types.User
	if err := tx.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) GetByOriginUID(ctx context.Context, tx *gorm.DB, originID uuid.UUID, originUID string) (*types.User, error) {
	if tx == nil {
		tx = r.db
	}
	var user types.User
	err := tx.WithContext(ctx).
		First(&user, "origin_id = ? AND origin_uid = ?", originID, originUID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindOrCreate resolves the user identified by (origin, origin-local id),
// creating it on first contact. The bool reports whether a row was created.
// A concurrent first contact loses the unique-index race and falls back to
// the winner's row.
func (r *userRepo) FindOrCreate(ctx context.Context, tx *gorm.DB, originID uuid.UUID, originUID string) (*types.User, bool, error) {
	user, err := r.GetByOriginUID(ctx, tx, originID, originUID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, siddata.ErrNotFound) {
		return nil, false, err
	}
	if tx == nil {
		tx = r.db
	}
	fresh := &types.User{OriginID: originID, OriginUID: originUID}
	createErr := translate(tx.WithContext(ctx).Create(fresh).Error)
	if createErr == nil {
		return fresh, true, nil
	}
	if errors.Is(createErr, siddata.ErrConstraintViolation) {
		user, err = r.GetByOriginUID(ctx, tx, originID, originUID)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}
	return nil, false, createErr
}

func (r *userRepo) Update(ctx context.Context, tx *gorm.DB, user *types.User) error {
	if tx == nil {
		tx = r.db
	}
	return translate(tx.WithContext(ctx).Save(user).Error)
}

func (r *userRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	return translate(tx.WithContext(ctx).Delete(&types.User{}, "id = ?", id).Error)
}

// SetProperty writes the single value for a key, updating an existing row
// in place so the one-value-per-key contract is preserved on the write path.
func (r *userRepo) SetProperty(ctx context.Context, tx *gorm.DB, userID uuid.UUID, key string, value datatypes.JSON) error {
	if tx == nil {
		tx = r.db
	}
	existing, err := r.GetProperty(ctx, tx, userID, key)
	if err != nil && !errors.Is(err, siddata.ErrNotFound) {
		return err
	}
	if existing != nil {
		existing.Value = value
		return translate(tx.WithContext(ctx).Save(existing).Error)
	}
	prop := &types.UserProperty{UserID: userID, Key: key, Value: value}
	return translate(tx.WithContext(ctx).Create(prop).Error)
}

// GetProperty returns the value for a key. Nothing prevents duplicate keys
// at the store level; finding more than one row is a data-integrity
// violation that is logged while the oldest row wins deterministically.
func (r *userRepo) GetProperty(ctx context.Context, tx *gorm.DB, userID uuid.UUID, key string) (*types.UserProperty, error) {
	if tx == nil {
		tx = r.db
	}
	var props []*types.UserProperty
	err := tx.WithContext(ctx).
		Where("user_id = ? AND key = ?", userID, key).
		Order("created_at, id").
		Find(&props).Error
	if err != nil {
		return nil, translate(err)
	}
	if len(props) == 0 {
		return nil, siddata.ErrNotFound
	}
	if len(props) > 1 {
		r.log.Warn("duplicate user property key, using oldest row",
			"user_id", userID, "key", key, "count", len(props), "error", siddata.ErrDataIntegrity)
	}
	return props[0], nil
}

func (r *userRepo) ListProperties(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserProperty, error) {
	if tx == nil {
		tx = r.db
	}
	var props []*types.UserProperty
	err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("key, created_at").
		Find(&props).Error
	if err != nil {
		return nil, translate(err)
	}
	return props, nil
}

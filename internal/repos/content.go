package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/types"
)

// ContentRepo handles the payload entities activities point at: questions,
// resources and persons.
type ContentRepo interface {
	FindOrCreateQuestion(ctx context.Context, tx *gorm.DB, q *types.Question) (*types.Question, error)
	GetQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error)
	FindOrCreateResource(ctx context.Context, tx *gorm.DB, res *types.Resource) (*types.Resource, error)
	GetResource(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Resource, error)
	FindOrCreatePerson(ctx context.Context, tx *gorm.DB, p *types.Person) (*types.Person, error)
	GetPerson(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Person, error)
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return &contentRepo{db: db, log: baseLog.With("repo", "ContentRepo")}
}

func (r *contentRepo) FindOrCreateQuestion(ctx context.Context, tx *gorm.DB, q *types.Question) (*types.Question, error) {
	if tx == nil {
		tx = r.db
	}
	var found types.Question
	err := tx.WithContext(ctx).
		Where("text = ? AND answer_type = ?", q.Text, q.AnswerType).
		First(&found).Error
	if err == nil {
		found.Selection = q.Selection
		found.MultiAnswers = q.MultiAnswers
		if err := translate(tx.WithContext(ctx).Save(&found).Error); err != nil {
			return nil, err
		}
		return &found, nil
	}
	if err := translate(tx.WithContext(ctx).Create(q).Error); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *contentRepo) GetQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Question, error) {
	if tx == nil {
		tx = r.db
	}
	var q types.Question
	if err := tx.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &q, nil
}

func (r *contentRepo) FindOrCreateResource(ctx context.Context, tx *gorm.DB, res *types.Resource) (*types.Resource, error) {
	if tx == nil {
		tx = r.db
	}
	var found types.Resource
	err := tx.WithContext(ctx).
		Where("title = ? AND url = ?", res.Title, res.URL).
		First(&found).Error
	if err == nil {
		return &found, nil
	}
	if err := translate(tx.WithContext(ctx).Create(res).Error); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *contentRepo) GetResource(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Resource, error) {
	if tx == nil {
		tx = r.db
	}
	var res types.Resource
	if err := tx.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &res, nil
}

func (r *contentRepo) FindOrCreatePerson(ctx context.Context, tx *gorm.DB, p *types.Person) (*types.Person, error) {
	if tx == nil {
		tx = r.db
	}
	var found types.Person
	err := tx.WithContext(ctx).
		Where("name = ? AND email = ?", p.Name, p.Email).
		First(&found).Error
	if err == nil {
		return &found, nil
	}
	if err := translate(tx.WithContext(ctx).Create(p).Error); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *contentRepo) GetPerson(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Person, error) {
	if tx == nil {
		tx = r.db
	}
	var p types.Person
	if err := tx.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

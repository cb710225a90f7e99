package repository

import (
	"context"

	"github.com/dzn7/meuburguer-sub000/internal/model"

	"gorm.io/gorm"
)

// CategoryRepository exposes the read-only category reference data used by
// the sync engine for name-based resolution.
type CategoryRepository interface {
	ListActive(ctx context.Context) ([]model.Category, error)
	FindActiveByName(ctx context.Context, name string) (*model.Category, error)
}

type categoryRepo struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository { return &categoryRepo{db: db} }

func (r *categoryRepo) ListActive(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&list).Error
	return list, err
}

func (r *categoryRepo) FindActiveByName(ctx context.Context, name string) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).
		Where("active = ? AND lower(name) = lower(?)", true, name).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

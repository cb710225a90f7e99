package repository

import (
	"context"

	"github.com/dzn7/meuburguer-sub000/internal/model"

	"gorm.io/gorm"
)

// StaffRepository exposes the read-only operator reference data.
type StaffRepository interface {
	ListActive(ctx context.Context) ([]model.Staff, error)
}

type staffRepo struct{ db *gorm.DB }

func NewStaffRepository(db *gorm.DB) StaffRepository { return &staffRepo{db: db} }

func (r *staffRepo) ListActive(ctx context.Context) ([]model.Staff, error) {
	var list []model.Staff
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&list).Error
	return list, err
}

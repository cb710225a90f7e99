package repository

import (
	"context"
	"errors"

	"github.com/dzn7/meuburguer-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNoOpenSession is returned by FindOpenSession when no session is open.
var ErrNoOpenSession = errors.New("no open register session")

// ErrNonPositiveAmount is the structural floor under every movement write:
// a ledger line with amount ≤ 0 is never persisted, whatever the caller.
var ErrNonPositiveAmount = errors.New("movement amount must be positive")

// RegisterRepository is the persistence boundary for register sessions and
// their cash movements. Validation here is structural only; business rules
// (lifecycle preconditions, dedup, category resolution) live in the services.
type RegisterRepository interface {
	CreateSession(ctx context.Context, s *model.RegisterSession) error
	FindOpenSession(ctx context.Context) (*model.RegisterSession, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.RegisterSession, error)
	UpdateSession(ctx context.Context, s *model.RegisterSession) error
	// DeleteSessionCascade removes the session and its movements as one unit.
	DeleteSessionCascade(ctx context.Context, id uuid.UUID) error
	ListSessions(ctx context.Context, page, limit int) ([]model.RegisterSession, int64, error)

	CreateMovement(ctx context.Context, m *model.CashMovement) error
	FindMovementByID(ctx context.Context, id uuid.UUID) (*model.CashMovement, error)
	DeleteMovement(ctx context.Context, id uuid.UUID) error
	// DeleteMovementsByOrder is the compensation path for cancelled orders.
	// Deleting zero rows is not an error.
	DeleteMovementsByOrder(ctx context.Context, sessionID uuid.UUID, orderID string) error
	// MovementExistsForOrder is the existence check the sync engine relies on
	// for idempotency.
	MovementExistsForOrder(ctx context.Context, sessionID uuid.UUID, orderID string) (bool, error)
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) CreateSession(ctx context.Context, s *model.RegisterSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *registerRepo) FindOpenSession(ctx context.Context) (*model.RegisterSession, error) {
	var s model.RegisterSession
	err := r.db.WithContext(ctx).Where("status = ?", model.SessionOpen).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.RegisterSession, error) {
	var s model.RegisterSession
	err := r.db.WithContext(ctx).Preload("Movements").First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *registerRepo) UpdateSession(ctx context.Context, s *model.RegisterSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// DeleteSessionCascade deletes movements first, then the session, inside one
// transaction so the pair can never be observed half-deleted.
func (r *registerRepo) DeleteSessionCascade(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.CashMovement{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.RegisterSession{}, "id = ?", id).Error
	})
}

func (r *registerRepo) ListSessions(ctx context.Context, page, limit int) ([]model.RegisterSession, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.RegisterSession{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sessions []model.RegisterSession
	err := r.db.WithContext(ctx).
		Order("opened_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}

func (r *registerRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	if !m.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *registerRepo) FindMovementByID(ctx context.Context, id uuid.UUID) (*model.CashMovement, error) {
	var m model.CashMovement
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *registerRepo) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CashMovement{}, "id = ?", id).Error
}

func (r *registerRepo) DeleteMovementsByOrder(ctx context.Context, sessionID uuid.UUID, orderID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND source_order_id = ?", sessionID, orderID).
		Delete(&model.CashMovement{}).Error
}

func (r *registerRepo) MovementExistsForOrder(ctx context.Context, sessionID uuid.UUID, orderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CashMovement{}).
		Where("session_id = ? AND source_order_id = ?", sessionID, orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *registerRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&movs).Error
	return movs, err
}

package service_test

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/model"
	"github.com/dzn7/meuburguer-sub000/internal/notify"
	"github.com/dzn7/meuburguer-sub000/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory RegisterRepository ─────────────────────────────────────────────

type memRegisterRepo struct {
	sessions  map[uuid.UUID]*model.RegisterSession
	movements []model.CashMovement

	// failExistsOrder forces an error from MovementExistsForOrder for one
	// order id, to exercise per-order failure accounting.
	failExistsOrder string
}

var _ repository.RegisterRepository = (*memRegisterRepo)(nil)

func newMemRegisterRepo() *memRegisterRepo {
	return &memRegisterRepo{sessions: make(map[uuid.UUID]*model.RegisterSession)}
}

func (r *memRegisterRepo) CreateSession(_ context.Context, s *model.RegisterSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *memRegisterRepo) FindOpenSession(_ context.Context) (*model.RegisterSession, error) {
	for _, s := range r.sessions {
		if s.Status == model.SessionOpen {
			return s, nil
		}
	}
	return nil, repository.ErrNoOpenSession
}

func (r *memRegisterRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.RegisterSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.Movements = nil
	for _, m := range r.movements {
		if m.SessionID == id {
			s.Movements = append(s.Movements, m)
		}
	}
	return s, nil
}

func (r *memRegisterRepo) UpdateSession(_ context.Context, s *model.RegisterSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *memRegisterRepo) DeleteSessionCascade(_ context.Context, id uuid.UUID) error {
	delete(r.sessions, id)
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.SessionID != id {
			kept = append(kept, m)
		}
	}
	r.movements = kept
	return nil
}

func (r *memRegisterRepo) ListSessions(_ context.Context, page, limit int) ([]model.RegisterSession, int64, error) {
	all := make([]model.RegisterSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, *s)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memRegisterRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	if !m.Amount.IsPositive() {
		return repository.ErrNonPositiveAmount
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memRegisterRepo) FindMovementByID(_ context.Context, id uuid.UUID) (*model.CashMovement, error) {
	for i := range r.movements {
		if r.movements[i].ID == id {
			m := r.movements[i]
			return &m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRegisterRepo) DeleteMovement(_ context.Context, id uuid.UUID) error {
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	r.movements = kept
	return nil
}

func (r *memRegisterRepo) DeleteMovementsByOrder(_ context.Context, sessionID uuid.UUID, orderID string) error {
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.SessionID == sessionID && m.SourceOrderID != nil && *m.SourceOrderID == orderID {
			continue
		}
		kept = append(kept, m)
	}
	r.movements = kept
	return nil
}

func (r *memRegisterRepo) MovementExistsForOrder(_ context.Context, sessionID uuid.UUID, orderID string) (bool, error) {
	if r.failExistsOrder != "" && orderID == r.failExistsOrder {
		return false, errors.New("store unavailable")
	}
	for _, m := range r.movements {
		if m.SessionID == sessionID && m.SourceOrderID != nil && *m.SourceOrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRegisterRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var result []model.CashMovement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			result = append(result, m)
		}
	}
	return result, nil
}

// ── In-memory CategoryRepository ─────────────────────────────────────────────

type memCategoryRepo struct {
	categories []model.Category
}

var _ repository.CategoryRepository = (*memCategoryRepo)(nil)

func newMemCategoryRepo(names ...string) *memCategoryRepo {
	r := &memCategoryRepo{}
	for _, n := range names {
		r.categories = append(r.categories, model.Category{
			ID:     uuid.New(),
			Name:   n,
			Kind:   model.MovementEntry,
			Active: true,
		})
	}
	return r
}

func (r *memCategoryRepo) ListActive(_ context.Context) ([]model.Category, error) {
	return r.categories, nil
}

func (r *memCategoryRepo) FindActiveByName(_ context.Context, name string) (*model.Category, error) {
	for i := range r.categories {
		if strings.EqualFold(r.categories[i].Name, name) {
			return &r.categories[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Order feed stub ──────────────────────────────────────────────────────────

type feedStub struct {
	orders []model.OrderSnapshot
	err    error
}

func (f *feedStub) ListOrdersSince(_ context.Context, _ time.Time) ([]model.OrderSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

// ── Recorders ────────────────────────────────────────────────────────────────

type dispatchRecorder struct {
	enqueued []uuid.UUID
	err      error
}

func (d *dispatchRecorder) EnqueueCloseReport(_ context.Context, sessionID uuid.UUID) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, sessionID)
	return nil
}

type publishRecorder struct {
	movementChanges int
	lifecycles      int
}

func (p *publishRecorder) PublishMovementChange(_ context.Context, _ uuid.UUID) { p.movementChanges++ }
func (p *publishRecorder) PublishLifecycleChange(_ context.Context)            { p.lifecycles++ }

type sinkRecorder struct {
	notifications []notify.Notification
}

func (s *sinkRecorder) Notify(n notify.Notification) {
	s.notifications = append(s.notifications, n)
}

package realtime_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/model"
	"github.com/dzn7/meuburguer-sub000/internal/realtime"
	"github.com/dzn7/meuburguer-sub000/internal/repository"
	"github.com/dzn7/meuburguer-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory repositories ───────────────────────────────────────────────────

type memRepo struct {
	sessions  map[uuid.UUID]*model.RegisterSession
	movements []model.CashMovement
}

var _ repository.RegisterRepository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[uuid.UUID]*model.RegisterSession)}
}

func (r *memRepo) CreateSession(_ context.Context, s *model.RegisterSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *memRepo) FindOpenSession(_ context.Context) (*model.RegisterSession, error) {
	for _, s := range r.sessions {
		if s.Status == model.SessionOpen {
			return s, nil
		}
	}
	return nil, repository.ErrNoOpenSession
}

func (r *memRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.RegisterSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *memRepo) UpdateSession(_ context.Context, s *model.RegisterSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *memRepo) DeleteSessionCascade(_ context.Context, id uuid.UUID) error {
	delete(r.sessions, id)
	return nil
}

func (r *memRepo) ListSessions(_ context.Context, _, _ int) ([]model.RegisterSession, int64, error) {
	return nil, 0, nil
}

func (r *memRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memRepo) FindMovementByID(_ context.Context, id uuid.UUID) (*model.CashMovement, error) {
	for i := range r.movements {
		if r.movements[i].ID == id {
			m := r.movements[i]
			return &m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) DeleteMovement(_ context.Context, id uuid.UUID) error {
	kept := r.movements[:0]
	for _, m := range r.movements {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	r.movements = kept
	return nil
}

func (r *memRepo) DeleteMovementsByOrder(_ context.Context, sessionID uuid.UUID, orderID string) error {
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

func (r *memRepo) MovementExistsForOrder(_ context.Context, sessionID uuid.UUID, orderID string) (bool, error) {
	for _, m := range r.movements {
		if m.SessionID == sessionID && m.SourceOrderID != nil && *m.SourceOrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var result []model.CashMovement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			result = append(result, m)
		}
	}
	return result, nil
}

type memCategories struct{ categories []model.Category }

var _ repository.CategoryRepository = (*memCategories)(nil)

func (r *memCategories) ListActive(_ context.Context) ([]model.Category, error) {
	return r.categories, nil
}

func (r *memCategories) FindActiveByName(_ context.Context, name string) (*model.Category, error) {
	for i := range r.categories {
		if r.categories[i].Name == name {
			return &r.categories[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Tests ────────────────────────────────────────────────────────────────────

// unreachableRedis returns a client whose commands fail fast. Publish errors
// must be tolerated (logged and dropped), so tests run without a server.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
}

func newRouter(repo *memRepo) *realtime.EventRouter {
	cats := &memCategories{categories: []model.Category{
		{ID: uuid.New(), Name: service.FallbackCategory, Kind: model.MovementEntry, Active: true},
	}}
	engine := service.NewSyncEngine(repo, cats, nil)
	return realtime.NewEventRouter(unreachableRedis(), engine, repo)
}

func seedOpenSession(repo *memRepo) *model.RegisterSession {
	s := &model.RegisterSession{
		ID:            uuid.New(),
		OpeningAmount: decimal.Zero,
		Status:        model.SessionOpen,
		OpenedBy:      "Ana",
		OpenedAt:      time.Now().Add(-time.Hour),
	}
	repo.sessions[s.ID] = s
	return s
}

func orderEventPayload(t *testing.T, order model.OrderSnapshot) []byte {
	t.Helper()
	data, err := json.Marshal(realtime.OrderEvent{Kind: realtime.EventInsert, Order: order})
	require.NoError(t, err)
	return data
}

func TestDispatchMalformedPayloadIsIgnored(t *testing.T) {
	repo := newMemRepo()
	seedOpenSession(repo)
	router := newRouter(repo)

	router.Dispatch(context.Background(), realtime.ChannelOrders, []byte("{not json"))
	router.Dispatch(context.Background(), realtime.ChannelMovements, []byte("{not json"))

	assert.Empty(t, repo.movements)
}

func TestDispatchOrderEventWithoutOpenSession(t *testing.T) {
	repo := newMemRepo()
	router := newRouter(repo)

	order := model.OrderSnapshot{
		ID: "o-1", Total: decimal.RequireFromString("10.00"),
		PaymentMethod: "pix", Status: "completed", CreatedAt: time.Now(),
	}
	router.Dispatch(context.Background(), realtime.ChannelOrders, orderEventPayload(t, order))

	assert.Empty(t, repo.movements, "no session → nothing to sync")
}

func TestDispatchOrderEventSyncsThroughEngine(t *testing.T) {
	repo := newMemRepo()
	session := seedOpenSession(repo)
	router := newRouter(repo)

	order := model.OrderSnapshot{
		ID: "o-2", CustomerName: "João", Total: decimal.RequireFromString("42.00"),
		PaymentMethod: "pix", Status: "completed", CreatedAt: time.Now(),
	}
	payload := orderEventPayload(t, order)

	// Republish to the (unreachable) broker must not break the dispatch.
	router.Dispatch(context.Background(), realtime.ChannelOrders, payload)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, session.ID, repo.movements[0].SessionID)

	// Redelivery of the same event is absorbed by the idempotent sync.
	router.Dispatch(context.Background(), realtime.ChannelOrders, payload)
	assert.Len(t, repo.movements, 1)
}

func TestDispatchCancellationRemovesMovement(t *testing.T) {
	repo := newMemRepo()
	seedOpenSession(repo)
	router := newRouter(repo)

	order := model.OrderSnapshot{
		ID: "o-3", Total: decimal.RequireFromString("18.00"),
		PaymentMethod: "pix", Status: "completed", CreatedAt: time.Now(),
	}
	router.Dispatch(context.Background(), realtime.ChannelOrders, orderEventPayload(t, order))
	require.Len(t, repo.movements, 1)

	order.Status = model.OrderStatusCancelled
	router.Dispatch(context.Background(), realtime.ChannelOrders, orderEventPayload(t, order))
	assert.Empty(t, repo.movements)
}

func TestLifecycleEventRefreshesSessionHandle(t *testing.T) {
	repo := newMemRepo()
	session := seedOpenSession(repo)
	router := newRouter(repo)

	// Warm the cache with the open session.
	order := model.OrderSnapshot{
		ID: "o-4", Total: decimal.RequireFromString("5.00"),
		PaymentMethod: "pix", Status: "completed", CreatedAt: time.Now(),
	}
	router.Dispatch(context.Background(), realtime.ChannelOrders, orderEventPayload(t, order))
	require.Len(t, repo.movements, 1)

	// Close the session out-of-band, then announce the lifecycle change.
	session.Status = model.SessionClosed
	lifecycle, _ := json.Marshal(realtime.MovementEvent{Kind: "lifecycle"})
	router.Dispatch(context.Background(), realtime.ChannelMovements, lifecycle)

	// Subsequent order events must find no open session.
	next := model.OrderSnapshot{
		ID: "o-5", Total: decimal.RequireFromString("7.00"),
		PaymentMethod: "pix", Status: "completed", CreatedAt: time.Now(),
	}
	router.Dispatch(context.Background(), realtime.ChannelOrders, orderEventPayload(t, next))
	assert.Len(t, repo.movements, 1, "closed session must not receive new movements")
}

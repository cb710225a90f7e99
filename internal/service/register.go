package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/dto"
	"github.com/dzn7/meuburguer-sub000/internal/model"
	"github.com/dzn7/meuburguer-sub000/internal/notify"
	"github.com/dzn7/meuburguer-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OrderSource is the read-only feed from the order-management service.
type OrderSource interface {
	ListOrdersSince(ctx context.Context, since time.Time) ([]model.OrderSnapshot, error)
}

// ReportDispatcher enqueues the async close-report job (PDF + summary mail).
type ReportDispatcher interface {
	EnqueueCloseReport(ctx context.Context, sessionID uuid.UUID) error
}

// EventPublisher republishes ledger change events so the realtime router can
// refresh its session handle and recompute statistics. Implementations must
// be best-effort; a lost event is recovered by the polling fallback.
type EventPublisher interface {
	PublishMovementChange(ctx context.Context, sessionID uuid.UUID)
	PublishLifecycleChange(ctx context.Context)
}

// RegisterService orchestrates the register lifecycle: Closed → Open → Closed.
// A fresh session is created per Open; sessions are never reopened.
type RegisterService interface {
	Open(ctx context.Context, req dto.OpenRegisterRequest) (*dto.RegisterReportResponse, error)
	Close(ctx context.Context, req dto.CloseRegisterRequest) (*dto.CloseRegisterResponse, error)
	RegisterMovement(ctx context.Context, req dto.ManualMovementRequest) error
	DeleteMovement(ctx context.Context, id uuid.UUID) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	GetActive(ctx context.Context) (*dto.RegisterReportResponse, error)
	Report(ctx context.Context, sessionID uuid.UUID) (*dto.RegisterReportResponse, error)
	History(ctx context.Context, page, limit int) ([]dto.SessionSummary, int64, error)
	// SyncOpenSession backfills the current open session from the order feed.
	// Safe to call redundantly — the sync engine is idempotent per order.
	SyncOpenSession(ctx context.Context) (BatchResult, error)
}

type registerService struct {
	repo       repository.RegisterRepository
	sync       *SyncEngine
	orders     OrderSource
	notifier   notify.Sink
	dispatcher ReportDispatcher
	publisher  EventPublisher
}

func NewRegisterService(
	repo repository.RegisterRepository,
	sync *SyncEngine,
	orders OrderSource,
	notifier notify.Sink,
	dispatcher ReportDispatcher,
	publisher EventPublisher,
) RegisterService {
	if notifier == nil {
		notifier = notify.LogSink{}
	}
	return &registerService{
		repo:       repo,
		sync:       sync,
		orders:     orders,
		notifier:   notifier,
		dispatcher: dispatcher,
		publisher:  publisher,
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *registerService) Open(ctx context.Context, req dto.OpenRegisterRequest) (*dto.RegisterReportResponse, error) {
	if _, err := s.repo.FindOpenSession(ctx); err == nil {
		return nil, Conflict("register already open")
	} else if !errors.Is(err, repository.ErrNoOpenSession) {
		return nil, storeErr("find open session", err)
	}

	if req.OpeningAmount.IsNegative() {
		return nil, Invalid("opening amount must not be negative")
	}

	mode := req.Mode
	if mode == "" {
		mode = dto.OpenModeManual
	}

	openingAmount := req.OpeningAmount
	openedAt := time.Now()
	var backfillOrders []model.OrderSnapshot

	if mode == dto.OpenModeBackfill {
		// Backfill policy: the float is represented purely as synced order
		// entries, so the operator amount is discarded and the session window
		// starts at the beginning of the reference day.
		openingAmount = decimal.Zero
		openedAt = startOfDay(referenceDate(req.ReferenceDate))

		orders, err := s.orders.ListOrdersSince(ctx, openedAt)
		if err != nil {
			return nil, storeErr("list orders for backfill", err)
		}
		backfillOrders = orders
	}

	session := &model.RegisterSession{
		OpeningAmount: openingAmount,
		TotalEntries:  decimal.Zero,
		TotalExits:    decimal.Zero,
		OpenedBy:      req.OpenedBy,
		Status:        model.SessionOpen,
		OpenedAt:      openedAt,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, storeErr("create session", err)
	}

	if len(backfillOrders) > 0 {
		res := s.sync.SyncBatch(ctx, session, backfillOrders)
		log.Info().
			Str("session_id", session.ID.String()).
			Int("created", res.Created).
			Int("skipped", res.Skipped).
			Int("failed", res.Failed).
			Msg("register: backfill sync on open")
	}

	if s.publisher != nil {
		s.publisher.PublishLifecycleChange(ctx)
	}
	s.notifier.Notify(notify.Notification{
		Kind:    notify.Success,
		Title:   "Register opened",
		Message: fmt.Sprintf("opened by %s with %s on hand", req.OpenedBy, openingAmount.StringFixed(2)),
	})

	return s.buildReport(ctx, session)
}

// ── Close ─────────────────────────────────────────────────────────────────────

func (s *registerService) Close(ctx context.Context, req dto.CloseRegisterRequest) (*dto.CloseRegisterResponse, error) {
	session, err := s.repo.FindOpenSession(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenSession) {
			return nil, Conflict("no open register")
		}
		return nil, storeErr("find open session", err)
	}

	movements, err := s.repo.ListMovements(ctx, session.ID)
	if err != nil {
		return nil, storeErr("list movements", err)
	}
	stats := ComputeStatistics(session, movements)

	expected := stats.CurrentBalance
	discrepancy := req.ClosingAmount.Sub(expected)
	now := time.Now()
	closingAmount := req.ClosingAmount
	closedBy := req.ClosedBy

	session.TotalEntries = stats.TotalEntries
	session.TotalExits = stats.TotalExits
	session.ExpectedBalance = &expected
	session.ClosingAmount = &closingAmount
	session.Discrepancy = &discrepancy
	session.ClosedBy = &closedBy
	session.Notes = req.Notes
	session.ClosedAt = &now
	session.Status = model.SessionClosed

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, storeErr("close session", err)
	}

	if s.dispatcher != nil {
		// Best-effort: the report mail must never block the close itself.
		if err := s.dispatcher.EnqueueCloseReport(ctx, session.ID); err != nil {
			log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("register: close report enqueue failed")
		}
	}
	if s.publisher != nil {
		s.publisher.PublishLifecycleChange(ctx)
	}
	s.notifier.Notify(notify.Notification{
		Kind:    notify.Success,
		Title:   "Register closed",
		Message: fmt.Sprintf("expected %s, counted %s, discrepancy %s", expected.StringFixed(2), closingAmount.StringFixed(2), discrepancy.StringFixed(2)),
	})

	return &dto.CloseRegisterResponse{
		SessionID:       session.ID.String(),
		Status:          model.SessionClosed,
		ExpectedBalance: expected,
		ClosingAmount:   closingAmount,
		Discrepancy:     discrepancy,
	}, nil
}

// ── Manual movements ──────────────────────────────────────────────────────────

func (s *registerService) RegisterMovement(ctx context.Context, req dto.ManualMovementRequest) error {
	if !req.Amount.IsPositive() {
		return Invalid("amount must be greater than zero")
	}

	session, err := s.repo.FindOpenSession(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenSession) {
			return Invalid("no open register session")
		}
		return storeErr("find open session", err)
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return Invalid("invalid category id")
	}
	var staffID *uuid.UUID
	if req.StaffID != nil {
		id, err := uuid.Parse(*req.StaffID)
		if err != nil {
			return Invalid("invalid staff id")
		}
		staffID = &id
	}

	// SourceOrderID stays nil: manual movements are never touched by the
	// sync engine's dedup or compensation logic.
	mov := &model.CashMovement{
		SessionID:     session.ID,
		CategoryID:    &categoryID,
		StaffID:       staffID,
		Kind:          req.Kind,
		Amount:        req.Amount,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	}
	if err := s.repo.CreateMovement(ctx, mov); err != nil {
		return storeErr("create movement", err)
	}

	if s.publisher != nil {
		s.publisher.PublishMovementChange(ctx, session.ID)
	}
	return nil
}

func (s *registerService) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	mov, err := s.repo.FindMovementByID(ctx, id)
	if err != nil {
		return storeErr("find movement", err)
	}
	// A closed session's ledger is frozen: its expected balance and
	// discrepancy were computed from exactly these lines. Corrections go
	// through whole-session deletion, never line by line.
	session, err := s.repo.FindSessionByID(ctx, mov.SessionID)
	if err != nil {
		return storeErr("find session", err)
	}
	if !session.IsOpen() {
		return Conflict("movements of a closed session cannot be deleted")
	}

	if err := s.repo.DeleteMovement(ctx, id); err != nil {
		return storeErr("delete movement", err)
	}
	if s.publisher != nil {
		s.publisher.PublishMovementChange(ctx, session.ID)
	}
	return nil
}

// ── Session deletion ──────────────────────────────────────────────────────────

func (s *registerService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	session, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		return storeErr("find session", err)
	}
	if session.IsOpen() {
		return Conflict("open sessions cannot be deleted")
	}
	if err := s.repo.DeleteSessionCascade(ctx, id); err != nil {
		return storeErr("delete session", err)
	}
	if s.publisher != nil {
		s.publisher.PublishLifecycleChange(ctx)
	}
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *registerService) GetActive(ctx context.Context) (*dto.RegisterReportResponse, error) {
	session, err := s.repo.FindOpenSession(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenSession) {
			return nil, nil
		}
		return nil, storeErr("find open session", err)
	}
	return s.buildReport(ctx, session)
}

func (s *registerService) Report(ctx context.Context, sessionID uuid.UUID) (*dto.RegisterReportResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, storeErr("find session", err)
	}
	return s.buildReport(ctx, session)
}

func (s *registerService) History(ctx context.Context, page, limit int) ([]dto.SessionSummary, int64, error) {
	sessions, total, err := s.repo.ListSessions(ctx, page, limit)
	if err != nil {
		return nil, 0, storeErr("list sessions", err)
	}
	summaries := make([]dto.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, dto.SessionSummary{
			SessionID:     sess.ID.String(),
			Status:        sess.Status,
			OpeningAmount: sess.OpeningAmount,
			ClosingAmount: sess.ClosingAmount,
			Discrepancy:   sess.Discrepancy,
			OpenedBy:      sess.OpenedBy,
			OpenedAt:      sess.OpenedAt.Format(time.RFC3339),
			ClosedAt:      formatTimePtr(sess.ClosedAt),
		})
	}
	return summaries, total, nil
}

// ── Backfill sync ─────────────────────────────────────────────────────────────

func (s *registerService) SyncOpenSession(ctx context.Context) (BatchResult, error) {
	session, err := s.repo.FindOpenSession(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenSession) {
			return BatchResult{}, nil
		}
		return BatchResult{}, storeErr("find open session", err)
	}
	orders, err := s.orders.ListOrdersSince(ctx, session.OpenedAt)
	if err != nil {
		return BatchResult{}, storeErr("list orders", err)
	}
	res := s.sync.SyncBatch(ctx, session, orders)
	if s.publisher != nil && res.Created+res.Removed > 0 {
		s.publisher.PublishMovementChange(ctx, session.ID)
	}
	return res, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *registerService) buildReport(ctx context.Context, session *model.RegisterSession) (*dto.RegisterReportResponse, error) {
	movements, err := s.repo.ListMovements(ctx, session.ID)
	if err != nil {
		return nil, storeErr("list movements", err)
	}
	stats := ComputeStatistics(session, movements)

	statsResp := dto.StatisticsResponse{
		CurrentBalance: stats.CurrentBalance,
		TotalEntries:   stats.TotalEntries,
		TotalExits:     stats.TotalExits,
		MovementCount:  stats.MovementCount,
	}

	// Delivery-type breakdown is informational; a feed outage must not break
	// the report.
	if s.orders != nil {
		if orders, err := s.orders.ListOrdersSince(ctx, session.OpenedAt); err == nil {
			buckets := BucketOrders(session, orders)
			if len(buckets) > 0 {
				statsResp.Orders = make(map[string]dto.DeliveryBucketResponse, len(buckets))
				for dt, b := range buckets {
					statsResp.Orders[dt] = dto.DeliveryBucketResponse{Count: b.Count, Revenue: b.Revenue}
				}
			}
		} else {
			log.Warn().Err(err).Msg("register: order feed unavailable, report has no delivery breakdown")
		}
	}

	movResp := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		movResp = append(movResp, movementToDTO(m))
	}

	return &dto.RegisterReportResponse{
		SessionID:       session.ID.String(),
		Status:          session.Status,
		OpeningAmount:   session.OpeningAmount,
		ClosingAmount:   session.ClosingAmount,
		ExpectedBalance: session.ExpectedBalance,
		Discrepancy:     session.Discrepancy,
		OpenedBy:        session.OpenedBy,
		ClosedBy:        session.ClosedBy,
		Notes:           session.Notes,
		OpenedAt:        session.OpenedAt.Format(time.RFC3339),
		ClosedAt:        formatTimePtr(session.ClosedAt),
		Statistics:      statsResp,
		Movements:       movResp,
	}, nil
}

func movementToDTO(m model.CashMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID.String(),
		Kind:          m.Kind,
		Amount:        m.Amount,
		CategoryID:    uuidPtrToString(m.CategoryID),
		StaffID:       uuidPtrToString(m.StaffID),
		Description:   m.Description,
		PaymentMethod: m.PaymentMethod,
		SourceOrderID: m.SourceOrderID,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
}

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func referenceDate(raw *string) time.Time {
	if raw == nil {
		return time.Now()
	}
	t, err := time.ParseInLocation("2006-01-02", *raw, time.Local)
	if err != nil {
		return time.Now()
	}
	return t
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

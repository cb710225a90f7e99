package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dzn7/meuburguer-sub000/internal/model"
	"github.com/dzn7/meuburguer-sub000/internal/notify"
	"github.com/dzn7/meuburguer-sub000/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SyncResult classifies the outcome of syncing one order into the ledger.
type SyncResult int

const (
	SyncCreated SyncResult = iota
	SyncAlreadySynced
	SyncSkipped
	SyncRemoved
)

func (r SyncResult) String() string {
	switch r {
	case SyncCreated:
		return "created"
	case SyncAlreadySynced:
		return "already_synced"
	case SyncSkipped:
		return "skipped"
	case SyncRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// SyncOutcome carries the result plus a human-readable reason for skips.
type SyncOutcome struct {
	Result SyncResult
	Reason string
}

// BatchResult aggregates per-order outcomes of a batch sync. One order's
// failure never aborts the batch, so Failed is accounted alongside the
// result counters.
type BatchResult struct {
	Created       int
	AlreadySynced int
	Skipped       int
	Removed       int
	Failed        int
}

// FallbackCategory receives order entries whose payment method has no
// dedicated category (or whose mapped category was deactivated).
const FallbackCategory = "Daily Sales"

// paymentCategories maps a normalized payment-method tag to the ledger
// category that buckets its order entries.
var paymentCategories = map[string]string{
	"cash":        "Orders - Cash",
	"dinheiro":    "Orders - Cash",
	"pix":         "Orders - PIX",
	"credit_card": "Orders - Card",
	"debit_card":  "Orders - Card",
	"card":        "Orders - Card",
	"cartao":      "Orders - Card",
}

func normalizePaymentMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(method, " ", "_")))
}

// SyncEngine translates order snapshots into ledger movements exactly once
// per order per session, tolerating at-least-once delivery of the triggering
// events. It is the single code path for order-derived movement creation —
// the realtime router, the polling fallback and the open-with-backfill all
// converge here.
type SyncEngine struct {
	repo       repository.RegisterRepository
	categories repository.CategoryRepository
	notifier   notify.Sink
}

func NewSyncEngine(repo repository.RegisterRepository, categories repository.CategoryRepository, notifier notify.Sink) *SyncEngine {
	if notifier == nil {
		notifier = notify.LogSink{}
	}
	return &SyncEngine{repo: repo, categories: categories, notifier: notifier}
}

// SyncOrder applies one order to the session ledger. Re-evaluates the full
// current order state on every invocation, so event ordering (insert before
// update) does not need to be preserved by the delivery channels.
func (e *SyncEngine) SyncOrder(ctx context.Context, session *model.RegisterSession, order model.OrderSnapshot) (SyncOutcome, error) {
	// Cancelled orders compensate: remove any movement previously synced.
	// Deleting zero rows is not an error, so this branch is idempotent too.
	if order.Cancelled() {
		if err := e.repo.DeleteMovementsByOrder(ctx, session.ID, order.ID); err != nil {
			return SyncOutcome{}, storeErr("delete movements by order", err)
		}
		return SyncOutcome{Result: SyncRemoved}, nil
	}

	// An order predating the session opening must never be attributed to it.
	if order.CreatedAt.Before(session.OpenedAt) {
		return SyncOutcome{Result: SyncSkipped, Reason: "outside session window"}, nil
	}

	// The feed only guarantees a non-negative total; a movement must carry a
	// strictly positive amount. Zero-total orders move no cash.
	if !order.Total.IsPositive() {
		return SyncOutcome{Result: SyncSkipped, Reason: "non-positive total"}, nil
	}

	// Dedup guard. Check-then-insert is not atomic; the partial unique index
	// on (session_id, source_order_id) backs it under true concurrency.
	exists, err := e.repo.MovementExistsForOrder(ctx, session.ID, order.ID)
	if err != nil {
		return SyncOutcome{}, storeErr("movement existence check", err)
	}
	if exists {
		return SyncOutcome{Result: SyncAlreadySynced}, nil
	}

	category, err := e.resolveCategory(ctx, order.PaymentMethod)
	if err != nil {
		return SyncOutcome{}, err
	}
	if category == nil {
		// Never silently drop the order — the operator must see this.
		e.notifier.Notify(notify.Notification{
			Kind:    notify.Warning,
			Title:   "Order not synced",
			Message: fmt.Sprintf("no active category for order %s (payment %q)", order.ID, order.PaymentMethod),
		})
		return SyncOutcome{Result: SyncSkipped, Reason: "no category"}, nil
	}

	desc := fmt.Sprintf("Order — %s (%s)", order.CustomerName, order.PaymentMethod)
	method := order.PaymentMethod
	orderID := order.ID
	mov := &model.CashMovement{
		SessionID:     session.ID,
		CategoryID:    &category.ID,
		Kind:          model.MovementEntry,
		Amount:        order.Total,
		Description:   &desc,
		PaymentMethod: &method,
		SourceOrderID: &orderID,
	}
	if err := e.repo.CreateMovement(ctx, mov); err != nil {
		return SyncOutcome{}, storeErr("create movement", err)
	}
	return SyncOutcome{Result: SyncCreated}, nil
}

// SyncBatch applies SyncOrder to each order in arrival order. Per-order
// failures are logged and counted, never propagated — redundant deliveries
// and the polling fallback will converge the remainder.
func (e *SyncEngine) SyncBatch(ctx context.Context, session *model.RegisterSession, orders []model.OrderSnapshot) BatchResult {
	var res BatchResult
	for _, order := range orders {
		outcome, err := e.SyncOrder(ctx, session, order)
		if err != nil {
			res.Failed++
			log.Warn().Str("order_id", order.ID).Err(err).Msg("sync: order failed, continuing batch")
			continue
		}
		switch outcome.Result {
		case SyncCreated:
			res.Created++
		case SyncAlreadySynced:
			res.AlreadySynced++
		case SyncSkipped:
			res.Skipped++
		case SyncRemoved:
			res.Removed++
		}
	}
	return res
}

// resolveCategory maps a payment method to an active ledger category, falling
// back to FallbackCategory. Returns (nil, nil) when even the fallback is
// missing from the active set.
func (e *SyncEngine) resolveCategory(ctx context.Context, paymentMethod string) (*model.Category, error) {
	name, ok := paymentCategories[normalizePaymentMethod(paymentMethod)]
	if ok {
		cat, err := e.categories.FindActiveByName(ctx, name)
		if err == nil {
			return cat, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeErr("find category", err)
		}
		// Mapped category missing or inactive — fall through to fallback.
	}
	cat, err := e.categories.FindActiveByName(ctx, FallbackCategory)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr("find fallback category", err)
	}
	return cat, nil
}

package service

import (
	"github.com/dzn7/meuburguer-sub000/internal/model"

	"github.com/shopspring/decimal"
)

// StatisticsView is derived on demand and never persisted: the balance
// derives solely from movements, so a synced order is counted exactly once.
type StatisticsView struct {
	CurrentBalance decimal.Decimal
	TotalEntries   decimal.Decimal
	TotalExits     decimal.Decimal
	MovementCount  int
}

// DeliveryBucket aggregates orders of one delivery type. Informational only —
// it must never feed back into the balance computation.
type DeliveryBucket struct {
	Count   int
	Revenue decimal.Decimal
}

// ComputeStatistics folds a session's movement list into the running balance:
//
//	balance = openingAmount + Σ(entries) − Σ(exits)
//
// An empty movement list yields balance == openingAmount exactly.
func ComputeStatistics(session *model.RegisterSession, movements []model.CashMovement) StatisticsView {
	entries := decimal.Zero
	exits := decimal.Zero
	for _, m := range movements {
		switch m.Kind {
		case model.MovementEntry:
			entries = entries.Add(m.Amount)
		case model.MovementExit:
			exits = exits.Add(m.Amount)
		}
	}
	return StatisticsView{
		CurrentBalance: session.OpeningAmount.Add(entries).Sub(exits),
		TotalEntries:   entries,
		TotalExits:     exits,
		MovementCount:  len(movements),
	}
}

// BucketOrders groups the session's orders by delivery type, excluding
// cancelled orders and orders outside the session window: before OpenedAt,
// or after ClosedAt once the session is closed.
func BucketOrders(session *model.RegisterSession, orders []model.OrderSnapshot) map[string]DeliveryBucket {
	buckets := make(map[string]DeliveryBucket)
	for _, o := range orders {
		if o.Cancelled() || o.CreatedAt.Before(session.OpenedAt) {
			continue
		}
		if session.ClosedAt != nil && o.CreatedAt.After(*session.ClosedAt) {
			continue
		}
		b := buckets[o.DeliveryType]
		b.Count++
		b.Revenue = b.Revenue.Add(o.Total)
		buckets[o.DeliveryType] = b
	}
	return buckets
}

// Package realtime keeps the ledger consistent as orders and movements
// change concurrently. Two producers — the redis pub/sub stream and a coarse
// polling fallback — converge on the same idempotent sync entry point, so
// redundant or out-of-order deliveries are safe by construction.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/dzn7/meuburguer-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Pub/sub channels. The order-management service publishes on ChannelOrders;
// this service publishes on ChannelMovements (including for movements it
// created itself) and ChannelStats.
const (
	ChannelOrders    = "events:orders"
	ChannelMovements = "events:movements"
	ChannelStats     = "events:stats"
)

// Order event kinds.
const (
	EventInsert = "insert"
	EventUpdate = "update"
)

// OrderEvent is the payload delivered on ChannelOrders.
type OrderEvent struct {
	Kind  string              `json:"kind"`
	Order model.OrderSnapshot `json:"order"`
}

// MovementEvent is the payload delivered on ChannelMovements. Kind
// "lifecycle" marks an open/close/delete transition rather than a single
// movement change; the router refreshes its session handle on those.
type MovementEvent struct {
	Kind      string `json:"kind"` // insert | delete | lifecycle
	SessionID string `json:"session_id,omitempty"`
}

// StatsEvent is republished on ChannelStats after every recompute.
type StatsEvent struct {
	SessionID      string `json:"session_id"`
	CurrentBalance string `json:"current_balance"`
	TotalEntries   string `json:"total_entries"`
	TotalExits     string `json:"total_exits"`
	MovementCount  int    `json:"movement_count"`
}

// Publisher pushes ledger change events into redis. It implements
// service.EventPublisher; failures are logged and dropped — the polling
// fallback recovers missed events.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher { return &Publisher{rdb: rdb} }

func (p *Publisher) PublishMovementChange(ctx context.Context, sessionID uuid.UUID) {
	p.publish(ctx, MovementEvent{Kind: EventInsert, SessionID: sessionID.String()})
}

func (p *Publisher) PublishLifecycleChange(ctx context.Context) {
	p.publish(ctx, MovementEvent{Kind: "lifecycle"})
}

func (p *Publisher) publish(ctx context.Context, ev MovementEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.rdb.Publish(ctx, ChannelMovements, data).Err(); err != nil {
		log.Warn().Err(err).Msg("realtime: publish movement event failed")
	}
}

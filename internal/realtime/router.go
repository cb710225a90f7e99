package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dzn7/meuburguer-sub000/internal/model"
	"github.com/dzn7/meuburguer-sub000/internal/repository"
	"github.com/dzn7/meuburguer-sub000/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EventRouter dispatches external change events into the sync engine and the
// statistics recompute path. It never synthesizes a movement directly: the
// sync engine is the single code path for order-derived movement creation,
// regardless of trigger source.
type EventRouter struct {
	rdb  *redis.Client
	sync *service.SyncEngine
	repo repository.RegisterRepository

	// Authoritative handle on the open session, passed into each dispatch
	// and refreshed after every lifecycle transition. No ambient global.
	mu      sync.RWMutex
	current *model.RegisterSession
}

func NewEventRouter(rdb *redis.Client, syncEngine *service.SyncEngine, repo repository.RegisterRepository) *EventRouter {
	return &EventRouter{rdb: rdb, sync: syncEngine, repo: repo}
}

// Start subscribes to the order and movement channels and dispatches events
// until ctx is cancelled. One bad event never stops the stream.
func (r *EventRouter) Start(ctx context.Context) {
	r.refreshSession(ctx)

	go func() {
		pubsub := r.rdb.Subscribe(ctx, ChannelOrders, ChannelMovements)
		defer pubsub.Close()

		log.Info().Msg("realtime: event router started")
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("realtime: event router shutting down")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.Dispatch(ctx, msg.Channel, []byte(msg.Payload))
			}
		}
	}()
}

// Dispatch routes one raw event. Exposed for the pub/sub loop and for tests;
// errors are logged, never propagated, so the stream keeps flowing.
func (r *EventRouter) Dispatch(ctx context.Context, channel string, payload []byte) {
	switch channel {
	case ChannelOrders:
		r.handleOrderEvent(ctx, payload)
	case ChannelMovements:
		r.handleMovementEvent(ctx, payload)
	}
}

func (r *EventRouter) handleOrderEvent(ctx context.Context, payload []byte) {
	var ev OrderEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Warn().Err(err).Msg("realtime: malformed order event")
		return
	}

	session := r.openSession(ctx)
	if session == nil {
		// No open session: nothing to sync, but the event is not an error —
		// the UI still consumes the order feed for display.
		log.Debug().Str("order_id", ev.Order.ID).Msg("realtime: order event with no open session")
		return
	}

	outcome, err := r.sync.SyncOrder(ctx, session, ev.Order)
	if err != nil {
		log.Warn().Str("order_id", ev.Order.ID).Err(err).Msg("realtime: order sync failed, will self-heal")
		return
	}
	log.Debug().
		Str("order_id", ev.Order.ID).
		Str("result", outcome.Result.String()).
		Msg("realtime: order event synced")

	// A created or removed movement is itself a change event: republish so
	// statistics recompute through the same path as any movement change.
	if outcome.Result == service.SyncCreated || outcome.Result == service.SyncRemoved {
		ev := MovementEvent{Kind: EventInsert, SessionID: session.ID.String()}
		if outcome.Result == service.SyncRemoved {
			ev.Kind = "delete"
		}
		data, _ := json.Marshal(ev)
		if err := r.rdb.Publish(ctx, ChannelMovements, data).Err(); err != nil {
			log.Warn().Err(err).Msg("realtime: republish movement event failed")
		}
	}
}

func (r *EventRouter) handleMovementEvent(ctx context.Context, payload []byte) {
	var ev MovementEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Warn().Err(err).Msg("realtime: malformed movement event")
		return
	}

	if ev.Kind == "lifecycle" {
		r.refreshSession(ctx)
	}

	session := r.openSession(ctx)
	if session == nil {
		return
	}

	movements, err := r.repo.ListMovements(ctx, session.ID)
	if err != nil {
		log.Warn().Err(err).Msg("realtime: statistics recompute failed")
		return
	}
	stats := service.ComputeStatistics(session, movements)

	data, err := json.Marshal(StatsEvent{
		SessionID:      session.ID.String(),
		CurrentBalance: stats.CurrentBalance.StringFixed(2),
		TotalEntries:   stats.TotalEntries.StringFixed(2),
		TotalExits:     stats.TotalExits.StringFixed(2),
		MovementCount:  stats.MovementCount,
	})
	if err != nil {
		return
	}
	if err := r.rdb.Publish(ctx, ChannelStats, data).Err(); err != nil {
		log.Warn().Err(err).Msg("realtime: publish stats failed")
	}
}

// openSession returns the cached handle, falling back to a store lookup when
// the cache is cold.
func (r *EventRouter) openSession(ctx context.Context) *model.RegisterSession {
	r.mu.RLock()
	session := r.current
	r.mu.RUnlock()
	if session != nil {
		return session
	}
	return r.refreshSession(ctx)
}

func (r *EventRouter) refreshSession(ctx context.Context) *model.RegisterSession {
	session, err := r.repo.FindOpenSession(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNoOpenSession) {
			log.Warn().Err(err).Msg("realtime: session refresh failed")
		}
		session = nil
	}
	r.mu.Lock()
	r.current = session
	r.mu.Unlock()
	return session
}

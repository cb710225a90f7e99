package realtime

import (
	"context"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/service"

	"github.com/rs/zerolog/log"
)

// StartPoller launches the coarse polling fallback: every interval it re-runs
// the open session's backfill sync as a safety net against missed events.
// Both the poller and the live stream funnel into the same idempotent sync,
// so no ordering between them is assumed.
func StartPoller(ctx context.Context, svc service.RegisterService, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("realtime: poller started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("realtime: poller shutting down")
				return
			case <-ticker.C:
				res, err := svc.SyncOpenSession(ctx)
				if err != nil {
					// Not retried here — the next tick or the next live event
					// for the same entity converges the state.
					log.Warn().Err(err).Msg("realtime: poll sync failed")
					continue
				}
				if res.Created+res.Removed > 0 {
					log.Info().
						Int("created", res.Created).
						Int("removed", res.Removed).
						Msg("realtime: poll recovered missed events")
				}
			}
		}
	}()
}

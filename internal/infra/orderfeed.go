package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dzn7/meuburguer-sub000/internal/model"
)

// OrderFeedClient reads the order-management service's read-only feed over
// HTTP. Live change events arrive separately via redis pub/sub; this client
// serves the polling fallback and the open-with-backfill path. All calls go
// through the circuit breaker so a downed order service fast-fails instead
// of stacking timeouts.
type OrderFeedClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewOrderFeedClient(baseURL string, cb *CircuitBreaker) *OrderFeedClient {
	return &OrderFeedClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cb:         cb,
	}
}

// ListOrdersSince returns every order created at or after the given instant,
// including cancelled ones — cancellation drives the compensation path, so
// filtering here would break it.
func (c *OrderFeedClient) ListOrdersSince(ctx context.Context, since time.Time) ([]model.OrderSnapshot, error) {
	var orders []model.OrderSnapshot
	err := c.cb.Execute(func() error {
		endpoint := fmt.Sprintf("%s/orders?since=%s", c.baseURL, url.QueryEscape(since.UTC().Format(time.RFC3339)))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("orderfeed: create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("orderfeed: service unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("orderfeed: service returned %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
			return fmt.Errorf("orderfeed: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

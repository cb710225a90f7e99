package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusCancelled is the terminal status that triggers compensation:
// a synced movement for a cancelled order must be removed.
const OrderStatusCancelled = "cancelled"

// Delivery types reported by the order service.
const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
	DeliveryTypeDineIn   = "dine_in"
)

// OrderSnapshot is the read-only order shape consumed from the
// order-management service. It is never persisted by this service; the ledger
// mirrors orders as movements instead.
type OrderSnapshot struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customer_name"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	DeliveryType  string          `json:"delivery_type"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Cancelled reports whether the order reached its terminal cancelled status.
func (o OrderSnapshot) Cancelled() bool { return o.Status == OrderStatusCancelled }

package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// Open modes. Backfill forces the opening amount to zero and re-derives cash
// on hand entirely from synced orders — keeping an operator float AND
// backfilled orders would double count.
const (
	OpenModeManual   = "manual"
	OpenModeBackfill = "backfill"
)

type OpenRegisterRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
	OpenedBy      string          `json:"opened_by"      validate:"required,min=2"`
	Mode          string          `json:"mode"           validate:"omitempty,oneof=manual backfill"`
	// ReferenceDate ("2006-01-02") bounds the backfill window; defaults to today.
	ReferenceDate *string `json:"reference_date" validate:"omitempty,datetime=2006-01-02"`
}

type CloseRegisterRequest struct {
	ClosingAmount decimal.Decimal `json:"closing_amount" validate:"min=0"`
	ClosedBy      string          `json:"closed_by"      validate:"required,min=2"`
	Notes         *string         `json:"notes"`
}

type ManualMovementRequest struct {
	Kind          string          `json:"kind"           validate:"required,oneof=entry exit"`
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0"`
	CategoryID    string          `json:"category_id"    validate:"required,uuid"`
	StaffID       *string         `json:"staff_id"       validate:"omitempty,uuid"`
	Description   *string         `json:"description"`
	PaymentMethod *string         `json:"payment_method"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovementResponse struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	CategoryID    *string         `json:"category_id"`
	StaffID       *string         `json:"staff_id"`
	Description   *string         `json:"description"`
	PaymentMethod *string         `json:"payment_method"`
	SourceOrderID *string         `json:"source_order_id"`
	CreatedAt     string          `json:"created_at"`
}

type DeliveryBucketResponse struct {
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type StatisticsResponse struct {
	CurrentBalance decimal.Decimal `json:"current_balance"`
	TotalEntries   decimal.Decimal `json:"total_entries"`
	TotalExits     decimal.Decimal `json:"total_exits"`
	MovementCount  int             `json:"movement_count"`
	// Informational breakdown of orders by delivery type — never feeds back
	// into the balance.
	Orders map[string]DeliveryBucketResponse `json:"orders,omitempty"`
}

type RegisterReportResponse struct {
	SessionID       string             `json:"session_id"`
	Status          string             `json:"status"`
	OpeningAmount   decimal.Decimal    `json:"opening_amount"`
	ClosingAmount   *decimal.Decimal   `json:"closing_amount"`
	ExpectedBalance *decimal.Decimal   `json:"expected_balance"`
	Discrepancy     *decimal.Decimal   `json:"discrepancy"`
	OpenedBy        string             `json:"opened_by"`
	ClosedBy        *string            `json:"closed_by"`
	Notes           *string            `json:"notes"`
	OpenedAt        string             `json:"opened_at"`
	ClosedAt        *string            `json:"closed_at"`
	Statistics      StatisticsResponse `json:"statistics"`
	Movements       []MovementResponse `json:"movements"`
}

type CloseRegisterResponse struct {
	SessionID       string          `json:"session_id"`
	Status          string          `json:"status"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	ClosingAmount   decimal.Decimal `json:"closing_amount"`
	Discrepancy     decimal.Decimal `json:"discrepancy"`
}

type SessionSummary struct {
	SessionID     string           `json:"session_id"`
	Status        string           `json:"status"`
	OpeningAmount decimal.Decimal  `json:"opening_amount"`
	ClosingAmount *decimal.Decimal `json:"closing_amount"`
	Discrepancy   *decimal.Decimal `json:"discrepancy"`
	OpenedBy      string           `json:"opened_by"`
	OpenedAt      string           `json:"opened_at"`
	ClosedAt      *string          `json:"closed_at"`
}

type SyncSummaryResponse struct {
	Created       int `json:"created"`
	AlreadySynced int `json:"already_synced"`
	Skipped       int `json:"skipped"`
	Removed       int `json:"removed"`
	Failed        int `json:"failed"`
}

type CategoryResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Color     *string `json:"color"`
	Icon      *string `json:"icon"`
	SortOrder int     `json:"sort_order"`
}

type StaffResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

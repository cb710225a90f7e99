package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session status values.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Movement kinds.
const (
	MovementEntry = "entry"
	MovementExit  = "exit"
)

// RegisterSession represents the lifecycle of one physical cash drawer session.
// At most one session may be open at any time; the invariant is enforced
// procedurally in the service layer and backed by a partial unique index
// (see infra.applySchemaPatches).
type RegisterSession struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OpeningAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ClosingAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// TotalEntries / TotalExits are denormalized snapshots written at close.
	// While the session is open the live values come from the aggregator.
	TotalEntries    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TotalExits      decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	ExpectedBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Discrepancy = ClosingAmount − ExpectedBalance, set at close.
	Discrepancy *decimal.Decimal `gorm:"type:decimal(12,2)"`
	OpenedBy    string           `gorm:"type:varchar(80);not null"`
	ClosedBy    *string          `gorm:"type:varchar(80)"`
	Notes       *string
	Status      string     `gorm:"type:varchar(10);not null;default:'open';index"`
	OpenedAt    time.Time  `gorm:"not null"`
	ClosedAt    *time.Time

	Movements []CashMovement `gorm:"foreignKey:SessionID"`
}

func (RegisterSession) TableName() string { return "register_sessions" }

// IsOpen reports whether the session still accepts movements.
func (s *RegisterSession) IsOpen() bool { return s.Status == SessionOpen }

// CashMovement is one ledger line. Movements are created and deleted, never
// updated in place. SourceOrderID is set iff the movement was synced from an
// external order; at most one movement may exist per (session, source order).
type CashMovement struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid"`
	StaffID       *uuid.UUID      `gorm:"type:uuid"`
	Kind          string          `gorm:"type:varchar(10);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description   *string
	PaymentMethod *string `gorm:"type:varchar(30)"`
	SourceOrderID *string `gorm:"type:varchar(64);index"`
	CreatedAt     time.Time
}

func (CashMovement) TableName() string { return "cash_movements" }

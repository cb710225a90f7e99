package model

import (
	"time"

	"github.com/google/uuid"
)

// Staff is an operator reference, read-only from the ledger's perspective.
type Staff struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(80);not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (Staff) TableName() string { return "staff" }

package model

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies ledger movements. Reference data: the engine only ever
// reads it, resolving categories by exact name against the active set.
// Kind: "entry" | "exit"
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(80);uniqueIndex;not null"`
	Kind      string    `gorm:"type:varchar(10);not null"`
	Color     *string   `gorm:"type:varchar(20)"`
	Icon      *string   `gorm:"type:varchar(40)"`
	SortOrder int       `gorm:"not null;default:0"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Category) TableName() string { return "categories" }

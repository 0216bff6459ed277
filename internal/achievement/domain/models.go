// Package domain contains the append-only achievement ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Achievement is one logged result. Rows are immutable once written;
// a correction writes a superseding row and retires the original, and a
// delete is a soft delete. The scoring engine consumes the ledger
// read-only.
type Achievement struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	ShopID      snowflake.ID    `gorm:"not null;index" json:"shop_id"`
	UserID      snowflake.ID    `gorm:"not null;index" json:"user_id"`
	CategoryID  snowflake.ID    `gorm:"not null;index" json:"category_id"`
	AchievedOn  time.Time       `gorm:"type:date;not null;index" json:"achieved_on"`
	Value       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	Source      string          `gorm:"type:text;not null" json:"source"`
	SourceRef   string          `gorm:"type:text;not null" json:"source_ref"`
	Note        string          `gorm:"type:text" json:"note,omitempty"`
	CorrectedBy *snowflake.ID   `gorm:"index" json:"corrected_by,omitempty"`
	CreatedBy   snowflake.ID    `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Achievement) TableName() string { return "achievements" }

const (
	SourceManual     = "manual"
	SourceImport     = "import"
	SourceCorrection = "correction"
)

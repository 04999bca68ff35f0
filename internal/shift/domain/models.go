// Package domain contains the register shift cash ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Shift statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Cash movement types. Sale covers off-bill cash sales recorded by hand;
// cash tendered on bills is attributed to the shift at query time and is
// never duplicated as a movement. Amounts are stored unsigned; sale and
// adjustment add to the drawer, drop and payout take from it.
const (
	MovementSale       = "sale"
	MovementDrop       = "drop"
	MovementPayout     = "payout"
	MovementAdjustment = "adjustment"
)

// Shift is one cash drawer period on a register. The expected, counted
// and variance columns are written exactly once, at close, and are never
// recomputed: a summary of a closed shift reads the frozen numbers even
// if bills or movements were corrected afterwards.
type Shift struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	Register          string       `json:"register" gorm:"type:text;not null;index"`
	OpenedBy          string       `json:"opened_by" gorm:"type:text;not null"`
	Status            string       `json:"status" gorm:"type:text;not null;index"`
	OpenedAt          time.Time    `json:"opened_at" gorm:"not null"`
	ClosedAt          *time.Time   `json:"closed_at,omitempty"`
	OpeningFloatMinor int64        `json:"opening_float_minor" gorm:"not null"`
	ExpectedCashMinor int64        `json:"expected_cash_minor" gorm:"not null;default:0"`
	CountedCashMinor  int64        `json:"counted_cash_minor" gorm:"not null;default:0"`
	VarianceMinor     int64        `json:"variance_minor" gorm:"not null;default:0"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Shift) TableName() string { return "shifts" }

// CashMovement is one manual drawer adjustment within a shift. Amounts
// are always positive; the movement type carries the sign.
type CashMovement struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	ShiftID     snowflake.ID `json:"shift_id" gorm:"not null;index"`
	Type        string       `json:"type" gorm:"type:text;not null"`
	AmountMinor int64        `json:"amount_minor" gorm:"not null"`
	Reason      string       `json:"reason" gorm:"type:text"`
	RecordedBy  string       `json:"recorded_by" gorm:"type:text"`
	RecordedAt  time.Time    `json:"recorded_at" gorm:"not null"`
}

// TableName sets the database table name.
func (CashMovement) TableName() string { return "shift_cash_movements" }

// Package domain contains the bill aggregator: table time plus counter
// items settled in one document.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Payment methods. Other covers QR, vouchers and anything else that is
// not drawer cash; for drawer arithmetic it behaves like card.
const (
	PaymentCash  = "cash"
	PaymentCard  = "card"
	PaymentOther = "other"
)

// Bill statuses.
const (
	StatusSettled = "settled"
	StatusVoided  = "voided"
)

// Bill is one settled sale. Bills carry no shift id: a shift claims a
// bill at query time by register and time window, so reopening a summary
// never rewrites bill rows. All money is integer minor units and the
// identity total = subtotal - discount + tax + tip holds on every row.
type Bill struct {
	ID                 snowflake.ID  `json:"id" gorm:"primaryKey"`
	Register           string        `json:"register" gorm:"type:text;not null;index:ix_bills_register_created,priority:1"`
	SessionID          *snowflake.ID `json:"session_id,omitempty" gorm:"uniqueIndex"`
	MemberID           *snowflake.ID `json:"member_id,omitempty" gorm:"index"`
	Status             string        `json:"status" gorm:"type:text;not null"`
	TimeChargeMinor    int64         `json:"time_charge_minor" gorm:"not null;default:0"`
	ItemsSubtotalMinor int64         `json:"items_subtotal_minor" gorm:"not null;default:0"`
	SubtotalMinor      int64         `json:"subtotal_minor" gorm:"not null"`
	DiscountMinor      int64         `json:"discount_minor" gorm:"not null;default:0"`
	FreeMinutesUsed    int64         `json:"free_minutes_used" gorm:"not null;default:0"`
	TaxMinor           int64         `json:"tax_minor" gorm:"not null;default:0"`
	TipMinor           int64         `json:"tip_minor" gorm:"not null;default:0"`
	TotalMinor         int64         `json:"total_minor" gorm:"not null"`
	PaymentMethod      string        `json:"payment_method" gorm:"type:text;not null"`
	TenderCashMinor    int64         `json:"tender_cash_minor" gorm:"not null;default:0"`
	TenderCardMinor    int64         `json:"tender_card_minor" gorm:"not null;default:0"`
	ChangeMinor        int64         `json:"change_minor" gorm:"not null;default:0"`
	CreatedBy          string        `json:"created_by" gorm:"type:text"`
	CreatedAt          time.Time     `json:"created_at" gorm:"not null;index:ix_bills_register_created,priority:2"`
}

// TableName sets the database table name.
func (Bill) TableName() string { return "bills" }

// BillItem is one sold line. Name and unit price are copied from the
// inventory item at sale time so later catalog edits never reprice a
// settled bill.
type BillItem struct {
	ID             snowflake.ID   `json:"id" gorm:"primaryKey"`
	BillID         snowflake.ID   `json:"bill_id" gorm:"not null;index"`
	ItemID         snowflake.ID   `json:"item_id" gorm:"not null"`
	Name           string         `json:"name" gorm:"type:text;not null"`
	UnitPriceMinor int64          `json:"unit_price_minor" gorm:"not null"`
	Qty            int64          `json:"qty" gorm:"not null"`
	LineTotalMinor int64          `json:"line_total_minor" gorm:"not null"`
	Modifiers      datatypes.JSON `json:"modifiers,omitempty" gorm:"type:jsonb"`
}

// TableName sets the database table name.
func (BillItem) TableName() string { return "bill_items" }

package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, query ListQuery) ([]Response, error)
	Void(ctx context.Context, id string, reason string) (*Response, error)
}

// Repository is the bill persistence port. It also answers the shift
// ledger's cash attribution queries.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bill *Bill, items []BillItem) error
	Get(ctx context.Context, db *gorm.DB, id int64) (*Bill, []BillItem, error)
	List(ctx context.Context, db *gorm.DB, query ListQuery) ([]Bill, error)

	// AttachSession stamps the bill on the session only while the
	// session has no bill yet, reporting whether a row changed.
	AttachSession(ctx context.Context, db *gorm.DB, sessionID, billID int64, at time.Time) (bool, error)

	// MarkVoided flips a settled bill to voided.
	MarkVoided(ctx context.Context, db *gorm.DB, id int64) (bool, error)
}

type CreateRequest struct {
	SessionID       *string       `json:"session_id,omitempty"`
	MemberID        *string       `json:"member_id,omitempty"`
	Register        string        `json:"register"`
	Items           []ItemRequest `json:"items"`
	PaymentMethod   string        `json:"payment_method"`
	TipMinor        int64         `json:"tip_minor"`
	TenderCashMinor int64         `json:"tender_cash_minor"`
	TenderCardMinor int64         `json:"tender_card_minor"`
	CreatedBy       string        `json:"created_by"`
}

type ItemRequest struct {
	ItemID    string         `json:"item_id"`
	Qty       int64          `json:"qty"`
	Modifiers map[string]any `json:"modifiers,omitempty"`
}

type ListQuery struct {
	Register string
	From     *time.Time
	To       *time.Time
	Limit    int
}

type Response struct {
	ID                 string         `json:"id"`
	Register           string         `json:"register"`
	SessionID          *string        `json:"session_id,omitempty"`
	MemberID           *string        `json:"member_id,omitempty"`
	Status             string         `json:"status"`
	TimeChargeMinor    int64          `json:"time_charge_minor"`
	ItemsSubtotalMinor int64          `json:"items_subtotal_minor"`
	SubtotalMinor      int64          `json:"subtotal_minor"`
	DiscountMinor      int64          `json:"discount_minor"`
	FreeMinutesUsed    int64          `json:"free_minutes_used"`
	TaxMinor           int64          `json:"tax_minor"`
	TipMinor           int64          `json:"tip_minor"`
	TotalMinor         int64          `json:"total_minor"`
	PaymentMethod      string         `json:"payment_method"`
	TenderCashMinor    int64          `json:"tender_cash_minor"`
	TenderCardMinor    int64          `json:"tender_card_minor"`
	ChangeMinor        int64          `json:"change_minor"`
	CreatedAt          time.Time      `json:"created_at"`
	Items              []ItemResponse `json:"items,omitempty"`
}

type ItemResponse struct {
	ID             string         `json:"id"`
	ItemID         string         `json:"item_id"`
	Name           string         `json:"name"`
	UnitPriceMinor int64          `json:"unit_price_minor"`
	Qty            int64          `json:"qty"`
	LineTotalMinor int64          `json:"line_total_minor"`
	Modifiers      map[string]any `json:"modifiers,omitempty"`
}

var (
	ErrSessionStillOpen     = errors.New("session_still_open")
	ErrSessionAlreadyBilled = errors.New("concurrency_conflict")
	ErrInsufficientTender   = errors.New("insufficient_tender")
	ErrInvalidPayment       = errors.New("invalid_payment_method")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidQty           = errors.New("invalid_qty")
	ErrEmptyBill            = errors.New("empty_bill")
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("not_found")
	ErrAlreadyVoided        = errors.New("invalid_state")
)

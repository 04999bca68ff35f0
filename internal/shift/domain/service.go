package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Service interface {
	Open(ctx context.Context, req OpenRequest) (*Response, error)
	RecordMovement(ctx context.Context, req MovementRequest) (*MovementResponse, error)
	Summary(ctx context.Context, shiftID string) (*SummaryResponse, error)
	Close(ctx context.Context, req CloseRequest) (*SummaryResponse, error)
	GetActive(ctx context.Context, register string) (*Response, error)
}

// Repository is the shift ledger persistence port.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, shift *Shift) error
	Get(ctx context.Context, db *gorm.DB, id int64) (*Shift, error)
	GetActiveByRegister(ctx context.Context, db *gorm.DB, register string) (*Shift, error)
	InsertMovement(ctx context.Context, db *gorm.DB, movement *CashMovement) error
	ListMovements(ctx context.Context, db *gorm.DB, shiftID int64) ([]CashMovement, error)

	// FreezeClose writes the final shift numbers only while the shift is
	// still open, reporting whether a row changed.
	FreezeClose(ctx context.Context, db *gorm.DB, close CloseUpdate) (bool, error)
}

// BillTotalsSource reports money tendered on bills inside a shift
// window. Bills carry no shift id; attribution is by register and time
// window at query time. The cash figure is net of change given back.
type BillTotalsSource interface {
	SalesTotals(ctx context.Context, register string, from time.Time, to *time.Time) (cashMinor, cardMinor int64, err error)
}

// CloseUpdate freezes the final shift numbers in one conditional write.
type CloseUpdate struct {
	ShiftID           int64
	ClosedAt          time.Time
	ExpectedCashMinor int64
	CountedCashMinor  int64
	VarianceMinor     int64
}

type OpenRequest struct {
	Register          string `json:"register"`
	OpenedBy          string `json:"opened_by"`
	OpeningFloatMinor int64  `json:"opening_float_minor"`
}

type MovementRequest struct {
	ShiftID     string `json:"shift_id"`
	Type        string `json:"type"`
	AmountMinor int64  `json:"amount_minor"`
	Reason      string `json:"reason"`
	RecordedBy  string `json:"recorded_by"`
}

type CloseRequest struct {
	ShiftID          string `json:"shift_id"`
	CountedCashMinor int64  `json:"counted_cash_minor"`
}

type Response struct {
	ID                string     `json:"id"`
	Register          string     `json:"register"`
	OpenedBy          string     `json:"opened_by"`
	Status            string     `json:"status"`
	OpenedAt          time.Time  `json:"opened_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	OpeningFloatMinor int64      `json:"opening_float_minor"`
}

type MovementResponse struct {
	ID          string    `json:"id"`
	ShiftID     string    `json:"shift_id"`
	Type        string    `json:"type"`
	AmountMinor int64     `json:"amount_minor"`
	Reason      string    `json:"reason,omitempty"`
	RecordedBy  string    `json:"recorded_by,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// SummaryResponse is the drawer reconciliation view. For an open shift
// the numbers are live; for a closed shift they are the frozen close
// numbers.
type SummaryResponse struct {
	ShiftID           string     `json:"shift_id"`
	Register          string     `json:"register"`
	Status            string     `json:"status"`
	OpenedAt          time.Time  `json:"opened_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	OpeningFloatMinor int64      `json:"opening_float_minor"`
	CashSalesMinor    int64      `json:"cash_sales_minor"`
	CardSalesMinor    int64      `json:"card_sales_minor"`
	DropMinor         int64      `json:"drop_minor"`
	PayoutMinor       int64      `json:"payout_minor"`
	AdjustmentMinor   int64      `json:"adjustment_minor"`
	ExpectedCashMinor int64      `json:"expected_cash_minor"`
	CountedCashMinor  *int64     `json:"counted_cash_minor,omitempty"`
	VarianceMinor     *int64     `json:"variance_minor,omitempty"`
}

var (
	ErrShiftAlreadyActive  = errors.New("shift_already_active")
	ErrShiftNotActive      = errors.New("shift_not_active")
	ErrInvalidRegister     = errors.New("invalid_register")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidMovementType = errors.New("invalid_movement_type")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrRegisterBusy        = errors.New("concurrency_conflict")
)

// Package pdf renders printable venue documents.
package pdf

import (
	"context"
	"io"
)

// Provider renders the documents the POS can print.
type Provider interface {
	GenerateShiftReport(ctx context.Context, data ShiftReportData) (io.Reader, error)
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

// ShiftReportData is the end-of-shift drawer report.
type ShiftReportData struct {
	VenueName string
	Register  string
	ShiftID   string
	OpenedBy  string
	OpenedAt  string
	ClosedAt  string

	OpeningFloat string
	CashSales    string
	CardSales    string
	Drops        string
	Payouts      string
	Adjustments  string
	ExpectedCash string
	CountedCash  string
	Variance     string

	Movements []MovementLine
}

type MovementLine struct {
	Time   string
	Type   string
	Amount string
	Reason string
}

// ReceiptData is the customer-facing bill receipt.
type ReceiptData struct {
	VenueName string
	BillNo    string
	Date      string
	TableCode string
	Cashier   string

	Items []ReceiptItem

	TimeCharge    string
	Subtotal      string
	Discount      string
	Tax           string
	Tip           string
	Total         string
	PaymentMethod string
	TenderCash    string
	TenderCard    string
	Change        string
}

type ReceiptItem struct {
	Name      string
	Qty       int64
	UnitPrice string
	Amount    string
}

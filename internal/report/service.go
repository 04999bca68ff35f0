// Package report assembles daily sales figures and printable documents.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/baizehq/baize/internal/billing/domain"
	"github.com/baizehq/baize/internal/config"
	"github.com/baizehq/baize/internal/providers/pdf"
	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
)

type Params struct {
	fx.In

	Cfg       config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Shifts    shiftdomain.Service
	ShiftRepo shiftdomain.Repository
	Bills     billingdomain.Service
	PDF       pdf.Provider
}

type Service struct {
	venueName string
	db        *gorm.DB
	log       *zap.Logger
	shifts    shiftdomain.Service
	shiftRepo shiftdomain.Repository
	bills     billingdomain.Service
	pdf       pdf.Provider
}

func New(p Params) *Service {
	return &Service{
		venueName: p.Cfg.VenueName,
		db:        p.DB,
		log:       p.Log.Named("report.service"),
		shifts:    p.Shifts,
		shiftRepo: p.ShiftRepo,
		bills:     p.Bills,
		pdf:       p.PDF,
	}
}

// DailySales is the aggregate sales view for one calendar day.
type DailySales struct {
	Date               string           `json:"date"`
	BillCount          int64            `json:"bill_count"`
	TimeChargeMinor    int64            `json:"time_charge_minor"`
	ItemsSubtotalMinor int64            `json:"items_subtotal_minor"`
	DiscountMinor      int64            `json:"discount_minor"`
	TaxMinor           int64            `json:"tax_minor"`
	TotalMinor         int64            `json:"total_minor"`
	ByPaymentMethod    map[string]int64 `json:"by_payment_method"`
}

type dailyRow struct {
	BillCount          int64
	TimeChargeMinor    int64
	ItemsSubtotalMinor int64
	DiscountMinor      int64
	TaxMinor           int64
	TotalMinor         int64
}

type methodRow struct {
	PaymentMethod string
	TotalMinor    int64
}

func (s *Service) DailySales(ctx context.Context, day time.Time) (*DailySales, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	var row dailyRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS bill_count,
		        COALESCE(SUM(time_charge_minor), 0) AS time_charge_minor,
		        COALESCE(SUM(items_subtotal_minor), 0) AS items_subtotal_minor,
		        COALESCE(SUM(discount_minor), 0) AS discount_minor,
		        COALESCE(SUM(tax_minor), 0) AS tax_minor,
		        COALESCE(SUM(total_minor), 0) AS total_minor
		 FROM bills
		 WHERE status = ?
		   AND created_at >= ?
		   AND created_at < ?`,
		billingdomain.StatusSettled, from, to,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}

	var methods []methodRow
	err = s.db.WithContext(ctx).Raw(
		`SELECT payment_method,
		        COALESCE(SUM(total_minor), 0) AS total_minor
		 FROM bills
		 WHERE status = ?
		   AND created_at >= ?
		   AND created_at < ?
		 GROUP BY payment_method`,
		billingdomain.StatusSettled, from, to,
	).Scan(&methods).Error
	if err != nil {
		return nil, err
	}

	report := &DailySales{
		Date:               from.Format("2006-01-02"),
		BillCount:          row.BillCount,
		TimeChargeMinor:    row.TimeChargeMinor,
		ItemsSubtotalMinor: row.ItemsSubtotalMinor,
		DiscountMinor:      row.DiscountMinor,
		TaxMinor:           row.TaxMinor,
		TotalMinor:         row.TotalMinor,
		ByPaymentMethod:    make(map[string]int64, len(methods)),
	}
	for _, method := range methods {
		report.ByPaymentMethod[method.PaymentMethod] = method.TotalMinor
	}
	return report, nil
}

// ShiftZReport renders the end-of-shift drawer report as a PDF.
func (s *Service) ShiftZReport(ctx context.Context, shiftID string) (io.Reader, error) {
	summary, err := s.shifts.Summary(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	id, err := snowflake.ParseString(shiftID)
	if err != nil {
		return nil, shiftdomain.ErrInvalidID
	}
	shift, err := s.shiftRepo.Get(ctx, s.db, int64(id))
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, shiftdomain.ErrNotFound
	}
	movements, err := s.shiftRepo.ListMovements(ctx, s.db, int64(id))
	if err != nil {
		return nil, err
	}

	data := pdf.ShiftReportData{
		VenueName:    s.venueName,
		Register:     summary.Register,
		ShiftID:      summary.ShiftID,
		OpenedBy:     shift.OpenedBy,
		OpenedAt:     summary.OpenedAt.Format(time.RFC822),
		ClosedAt:     "open",
		OpeningFloat: formatMinor(summary.OpeningFloatMinor),
		CashSales:    formatMinor(summary.CashSalesMinor),
		CardSales:    formatMinor(summary.CardSalesMinor),
		Drops:        formatMinor(summary.DropMinor),
		Payouts:      formatMinor(summary.PayoutMinor),
		Adjustments:  formatMinor(summary.AdjustmentMinor),
		ExpectedCash: formatMinor(summary.ExpectedCashMinor),
	}
	if summary.ClosedAt != nil {
		data.ClosedAt = summary.ClosedAt.Format(time.RFC822)
	}
	if summary.CountedCashMinor != nil {
		data.CountedCash = formatMinor(*summary.CountedCashMinor)
	}
	if summary.VarianceMinor != nil {
		data.Variance = formatMinor(*summary.VarianceMinor)
	}
	for _, movement := range movements {
		data.Movements = append(data.Movements, pdf.MovementLine{
			Time:   movement.RecordedAt.Format("15:04"),
			Type:   movement.Type,
			Amount: formatMinor(movement.AmountMinor),
			Reason: movement.Reason,
		})
	}

	return s.pdf.GenerateShiftReport(ctx, data)
}

// BillReceipt renders a settled bill as a printable receipt.
func (s *Service) BillReceipt(ctx context.Context, billID string) (io.Reader, error) {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	data := pdf.ReceiptData{
		VenueName:     s.venueName,
		BillNo:        bill.ID,
		Date:          bill.CreatedAt.Format(time.RFC822),
		Subtotal:      formatMinor(bill.SubtotalMinor),
		Discount:      formatMinor(bill.DiscountMinor),
		Tax:           formatMinor(bill.TaxMinor),
		Total:         formatMinor(bill.TotalMinor),
		PaymentMethod: bill.PaymentMethod,
	}
	if bill.TimeChargeMinor > 0 {
		data.TimeCharge = formatMinor(bill.TimeChargeMinor)
	}
	if bill.DiscountMinor == 0 {
		data.Discount = ""
	}
	if bill.TaxMinor == 0 {
		data.Tax = ""
	}
	if bill.TipMinor > 0 {
		data.Tip = formatMinor(bill.TipMinor)
	}
	if bill.TenderCashMinor > 0 {
		data.TenderCash = formatMinor(bill.TenderCashMinor)
	}
	if bill.TenderCardMinor > 0 {
		data.TenderCard = formatMinor(bill.TenderCardMinor)
	}
	if bill.ChangeMinor > 0 {
		data.Change = formatMinor(bill.ChangeMinor)
	}
	for _, item := range bill.Items {
		data.Items = append(data.Items, pdf.ReceiptItem{
			Name:      item.Name,
			Qty:       item.Qty,
			UnitPrice: formatMinor(item.UnitPriceMinor),
			Amount:    formatMinor(item.LineTotalMinor),
		})
	}

	return s.pdf.GenerateReceipt(ctx, data)
}

func formatMinor(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

var Module = fx.Module("report.service",
	fx.Provide(pdf.New),
	fx.Provide(New),
)

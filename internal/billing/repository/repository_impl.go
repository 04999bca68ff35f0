package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	billingdomain "github.com/baizehq/baize/internal/billing/domain"
	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
	sessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) billingdomain.Repository {
	return &repo{db: db}
}

// NewTotalsSource exposes the same store through the shift ledger's
// cash attribution port.
func NewTotalsSource(db *gorm.DB) shiftdomain.BillTotalsSource {
	return &repo{db: db}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bill *billingdomain.Bill, items []billingdomain.BillItem) error {
	if err := db.WithContext(ctx).Create(bill).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, id int64) (*billingdomain.Bill, []billingdomain.BillItem, error) {
	var bill billingdomain.Bill
	err := db.WithContext(ctx).First(&bill, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var items []billingdomain.BillItem
	err = db.WithContext(ctx).
		Where("bill_id = ?", id).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, nil, err
	}
	return &bill, items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, query billingdomain.ListQuery) ([]billingdomain.Bill, error) {
	stmt := db.WithContext(ctx).Model(&billingdomain.Bill{})
	if query.Register != "" {
		stmt = stmt.Where("register = ?", query.Register)
	}
	if query.From != nil {
		stmt = stmt.Where("created_at >= ?", *query.From)
	}
	if query.To != nil {
		stmt = stmt.Where("created_at < ?", *query.To)
	}
	limit := query.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var bills []billingdomain.Bill
	err := stmt.Order("created_at DESC").Limit(limit).Find(&bills).Error
	return bills, err
}

func (r *repo) AttachSession(ctx context.Context, db *gorm.DB, sessionID, billID int64, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE table_sessions
		 SET bill_id = ?,
		     updated_at = ?
		 WHERE id = ?
		   AND status = ?
		   AND bill_id IS NULL`,
		billID, at, sessionID, sessiondomain.StatusClosed,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) MarkVoided(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE bills
		 SET status = ?
		 WHERE id = ?
		   AND status = ?`,
		billingdomain.StatusVoided, id, billingdomain.StatusSettled,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SalesTotals sums settled bills on a register inside the shift window.
// The cash leg is what actually stayed in the drawer, tendered cash net
// of change given back. Nil window end means the shift is still open.
func (r *repo) SalesTotals(ctx context.Context, register string, from time.Time, to *time.Time) (int64, int64, error) {
	stmt := r.db.WithContext(ctx).
		Model(&billingdomain.Bill{}).
		Where("register = ?", register).
		Where("status = ?", billingdomain.StatusSettled).
		Where("created_at >= ?", from)
	if to != nil {
		stmt = stmt.Where("created_at < ?", *to)
	}

	var totals struct {
		Cash int64
		Card int64
	}
	err := stmt.
		Select("COALESCE(SUM(tender_cash_minor - change_minor), 0) AS cash, COALESCE(SUM(tender_card_minor), 0) AS card").
		Scan(&totals).Error
	return totals.Cash, totals.Card, err
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	inventorydomain "github.com/baizehq/baize/internal/inventory/domain"
)

type stock struct{}

func NewStock() inventorydomain.Stock {
	return &stock{}
}

func (r *stock) Get(ctx context.Context, db *gorm.DB, id int64) (*inventorydomain.Item, error) {
	var item inventorydomain.Item
	err := db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *stock) Decrement(ctx context.Context, db *gorm.DB, id, qty int64, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE inventory_items
		 SET stock_qty = stock_qty - ?,
		     updated_at = ?
		 WHERE id = ?
		   AND active = ?
		   AND stock_qty >= ?`,
		qty, at, id, true, qty,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

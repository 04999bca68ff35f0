package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	memberdomain "github.com/baizehq/baize/internal/member/domain"
)

type ledger struct{}

func NewLedger() memberdomain.Ledger {
	return &ledger{}
}

func (r *ledger) Get(ctx context.Context, db *gorm.DB, id int64) (*memberdomain.Member, error) {
	var member memberdomain.Member
	err := db.WithContext(ctx).First(&member, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *ledger) ConsumeFreeMinutes(ctx context.Context, db *gorm.DB, id, minutes int64, at time.Time) (bool, error) {
	if minutes <= 0 {
		return true, nil
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE members
		 SET free_minutes_balance = free_minutes_balance - ?,
		     updated_at = ?
		 WHERE id = ?
		   AND free_minutes_balance >= ?`,
		minutes, at, id, minutes,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
)

type repo struct{}

func New() shiftdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, shift *shiftdomain.Shift) error {
	return db.WithContext(ctx).Create(shift).Error
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, id int64) (*shiftdomain.Shift, error) {
	var shift shiftdomain.Shift
	err := db.WithContext(ctx).First(&shift, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

func (r *repo) GetActiveByRegister(ctx context.Context, db *gorm.DB, register string) (*shiftdomain.Shift, error) {
	var shift shiftdomain.Shift
	err := db.WithContext(ctx).
		Where("register = ? AND status = ?", register, shiftdomain.StatusOpen).
		First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

func (r *repo) InsertMovement(ctx context.Context, db *gorm.DB, movement *shiftdomain.CashMovement) error {
	return db.WithContext(ctx).Create(movement).Error
}

func (r *repo) ListMovements(ctx context.Context, db *gorm.DB, shiftID int64) ([]shiftdomain.CashMovement, error) {
	var movements []shiftdomain.CashMovement
	err := db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("recorded_at ASC, id ASC").
		Find(&movements).Error
	return movements, err
}

func (r *repo) FreezeClose(ctx context.Context, db *gorm.DB, close shiftdomain.CloseUpdate) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE shifts
		 SET status = ?,
		     closed_at = ?,
		     expected_cash_minor = ?,
		     counted_cash_minor = ?,
		     variance_minor = ?,
		     updated_at = ?
		 WHERE id = ?
		   AND status = ?`,
		shiftdomain.StatusClosed,
		close.ClosedAt,
		close.ExpectedCashMinor,
		close.CountedCashMinor,
		close.VarianceMinor,
		close.ClosedAt,
		close.ShiftID,
		shiftdomain.StatusOpen,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

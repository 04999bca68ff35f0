package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	sessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
)

type repo struct{}

func New() sessiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, session *sessiondomain.Session) error {
	return db.WithContext(ctx).Create(session).Error
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, id int64) (*sessiondomain.Session, error) {
	var session sessiondomain.Session
	err := db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repo) ListOpen(ctx context.Context, db *gorm.DB) ([]sessiondomain.Session, error) {
	var sessions []sessiondomain.Session
	err := db.WithContext(ctx).
		Where("status IN ?", []string{sessiondomain.StatusActive, sessiondomain.StatusPaused}).
		Order("started_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *repo) ListPauses(ctx context.Context, db *gorm.DB, sessionID int64) ([]sessiondomain.Pause, error) {
	var pauses []sessiondomain.Pause
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("paused_at ASC").
		Find(&pauses).Error
	return pauses, err
}

func (r *repo) Transition(ctx context.Context, db *gorm.DB, id int64, from, to string, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE table_sessions
		 SET status = ?,
		     updated_at = ?
		 WHERE id = ?
		   AND status = ?`,
		to, at, id, from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertPause(ctx context.Context, db *gorm.DB, pause *sessiondomain.Pause) error {
	return db.WithContext(ctx).Create(pause).Error
}

func (r *repo) ResumePause(ctx context.Context, db *gorm.DB, sessionID int64, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE table_session_pauses
		 SET resumed_at = ?
		 WHERE session_id = ?
		   AND resumed_at IS NULL`,
		at, sessionID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FreezeClose(ctx context.Context, db *gorm.DB, close sessiondomain.CloseUpdate) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE table_sessions
		 SET status = ?,
		     closed_at = ?,
		     paused_seconds = ?,
		     elapsed_minutes = ?,
		     time_charge_minor = ?,
		     updated_at = ?
		 WHERE id = ?
		   AND status IN (?, ?)`,
		sessiondomain.StatusClosed,
		close.ClosedAt,
		close.PausedSeconds,
		close.ElapsedMinutes,
		close.TimeChargeMinor,
		close.ClosedAt,
		close.SessionID,
		sessiondomain.StatusActive,
		sessiondomain.StatusPaused,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Reseat(ctx context.Context, db *gorm.DB, move sessiondomain.MoveUpdate) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE table_sessions
		 SET table_id = ?,
		     table_code = ?,
		     table_type = ?,
		     updated_at = ?
		 WHERE id = ?
		   AND status IN (?, ?)`,
		move.TableID,
		move.TableCode,
		move.TableType,
		move.MovedAt,
		move.SessionID,
		sessiondomain.StatusActive,
		sessiondomain.StatusPaused,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ClaimTable(ctx context.Context, db *gorm.DB, tableID int64, from, to string, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE tables
		 SET status = ?,
		     updated_at = ?
		 WHERE id = ?
		   AND status = ?`,
		to, at, tableID, from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

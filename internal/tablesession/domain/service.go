package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Service interface {
	Start(ctx context.Context, req StartRequest) (*Response, error)
	Pause(ctx context.Context, sessionID string) (*Response, error)
	Resume(ctx context.Context, sessionID string) (*Response, error)
	Move(ctx context.Context, sessionID, tableID string) (*Response, error)
	Stop(ctx context.Context, sessionID string) (*Response, error)
	GetByID(ctx context.Context, sessionID string) (*Response, error)
	ListOpen(ctx context.Context) ([]Response, error)
}

// Repository is the session ledger persistence port. Methods that take a
// db handle participate in the caller's transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, session *Session) error
	Get(ctx context.Context, db *gorm.DB, id int64) (*Session, error)
	ListOpen(ctx context.Context, db *gorm.DB) ([]Session, error)
	ListPauses(ctx context.Context, db *gorm.DB, sessionID int64) ([]Pause, error)

	// Transition flips the session status only when the current status
	// matches from, reporting whether a row changed.
	Transition(ctx context.Context, db *gorm.DB, id int64, from, to string, at time.Time) (bool, error)
	InsertPause(ctx context.Context, db *gorm.DB, pause *Pause) error
	ResumePause(ctx context.Context, db *gorm.DB, sessionID int64, at time.Time) (bool, error)
	FreezeClose(ctx context.Context, db *gorm.DB, close CloseUpdate) (bool, error)

	// ClaimTable flips a table between statuses only when the current
	// status matches from.
	ClaimTable(ctx context.Context, db *gorm.DB, tableID int64, from, to string, at time.Time) (bool, error)

	// Reseat points an open session at another table.
	Reseat(ctx context.Context, db *gorm.DB, move MoveUpdate) (bool, error)
}

// ActiveCache mirrors the open session id per table for cheap floor
// lookups. The cache is advisory; the session table stays authoritative
// and every miss or cache failure falls through to the database.
type ActiveCache interface {
	Store(ctx context.Context, tableID, sessionID string)
	Clear(ctx context.Context, tableID string)
}

// CloseUpdate freezes the final session numbers in one conditional write.
type CloseUpdate struct {
	SessionID       int64
	ClosedAt        time.Time
	PausedSeconds   int64
	ElapsedMinutes  int64
	TimeChargeMinor int64
}

// MoveUpdate carries the target table a session is reseated onto. The
// pinned rate travels with the session.
type MoveUpdate struct {
	SessionID int64
	TableID   int64
	TableCode string
	TableType string
	MovedAt   time.Time
}

type StartRequest struct {
	TableID  string  `json:"table_id"`
	MemberID *string `json:"member_id,omitempty"`
}

type Response struct {
	ID              string     `json:"id"`
	TableID         string     `json:"table_id"`
	TableCode       string     `json:"table_code"`
	TableType       string     `json:"table_type"`
	MemberID        *string    `json:"member_id,omitempty"`
	RateID          string     `json:"rate_id"`
	HourlyRateMinor int64      `json:"hourly_rate_minor"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	PausedSeconds   int64      `json:"paused_seconds"`
	ElapsedMinutes  int64      `json:"elapsed_minutes"`
	TimeChargeMinor int64      `json:"time_charge_minor"`
	BillID          *string    `json:"bill_id,omitempty"`
}

var (
	ErrAlreadyOccupied = errors.New("already_occupied")
	ErrTableRetired    = errors.New("table_unavailable")
	ErrInvalidState    = errors.New("invalid_state")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
	ErrConflict        = errors.New("concurrency_conflict")
)

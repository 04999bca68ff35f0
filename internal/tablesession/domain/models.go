// Package domain contains the table session ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Session statuses.
const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusClosed = "closed"
)

// Session is one continuous occupancy of a table. The hourly rate is
// pinned at start time, so tariff edits never reprice a running session.
// ElapsedMinutes and TimeChargeMinor are written exactly once, at close,
// and never recomputed afterwards.
type Session struct {
	ID              snowflake.ID  `json:"id" gorm:"primaryKey"`
	TableID         snowflake.ID  `json:"table_id" gorm:"not null;index"`
	TableCode       string        `json:"table_code" gorm:"type:text;not null"`
	TableType       string        `json:"table_type" gorm:"type:text;not null"`
	MemberID        *snowflake.ID `json:"member_id,omitempty" gorm:"index"`
	RateID          snowflake.ID  `json:"rate_id" gorm:"not null"`
	HourlyRateMinor int64         `json:"hourly_rate_minor" gorm:"not null"`
	Status          string        `json:"status" gorm:"type:text;not null;index"`
	StartedAt       time.Time     `json:"started_at" gorm:"not null"`
	ClosedAt        *time.Time    `json:"closed_at,omitempty"`
	PausedSeconds   int64         `json:"paused_seconds" gorm:"not null;default:0"`
	ElapsedMinutes  int64         `json:"elapsed_minutes" gorm:"not null;default:0"`
	TimeChargeMinor int64         `json:"time_charge_minor" gorm:"not null;default:0"`
	BillID          *snowflake.ID `json:"bill_id,omitempty" gorm:"index"`
	CreatedAt       time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "table_sessions" }

// Open reports whether the session still accrues or can accrue time.
func (s *Session) Open() bool {
	return s.Status == StatusActive || s.Status == StatusPaused
}

// Pause is one paused interval within a session. ResumedAt is nil while
// the pause is still in force.
type Pause struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	SessionID snowflake.ID `json:"session_id" gorm:"not null;index"`
	PausedAt  time.Time    `json:"paused_at" gorm:"not null"`
	ResumedAt *time.Time   `json:"resumed_at,omitempty"`
}

// TableName sets the database table name.
func (Pause) TableName() string { return "table_session_pauses" }

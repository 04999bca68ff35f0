// Package domain contains the venue table registry.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Table statuses. Occupied is owned by the session lifecycle; operators
// may only flip between available and maintenance.
const (
	StatusAvailable   = "available"
	StatusOccupied    = "occupied"
	StatusMaintenance = "maintenance"
)

// Table is one physical billiard table. Code is the short label printed
// on the floor plan and is unique within a venue.
type Table struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	VenueID   string       `json:"venue_id" gorm:"type:text;not null;uniqueIndex:ux_tables_venue_code,priority:1"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex:ux_tables_venue_code,priority:2"`
	TableType string       `json:"table_type" gorm:"type:text;not null;index"`
	Status    string       `json:"status" gorm:"type:text;not null;default:available"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Table) TableName() string { return "tables" }

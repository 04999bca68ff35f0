// Package domain contains the tariff rate table and charge arithmetic.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Rate is one hourly tariff for a table type. History is kept by
// effective_from; the rate in force at an instant is the newest row whose
// effective_from is not after it.
type Rate struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	TableType       string       `json:"table_type" gorm:"type:text;not null;index:ix_tariff_rates_type_from,priority:1"`
	Name            string       `json:"name" gorm:"type:text;not null"`
	HourlyRateMinor int64        `json:"hourly_rate_minor" gorm:"not null"`
	EffectiveFrom   time.Time    `json:"effective_from" gorm:"not null;index:ix_tariff_rates_type_from,priority:2"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Rate) TableName() string { return "tariff_rates" }

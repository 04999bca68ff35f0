package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, tableType string) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	// Resolve returns the rate in force for the table type at the given
	// instant. Sessions pin the resolved rate at start time, so tariff
	// edits never reprice a running session.
	Resolve(ctx context.Context, tableType string, at time.Time) (*Rate, error)
}

type CreateRequest struct {
	TableType       string     `json:"table_type"`
	Name            string     `json:"name"`
	HourlyRateMinor int64      `json:"hourly_rate_minor"`
	EffectiveFrom   *time.Time `json:"effective_from"`
}

type UpdateRequest struct {
	ID              string `json:"id"`
	Name            *string `json:"name,omitempty"`
	HourlyRateMinor *int64  `json:"hourly_rate_minor,omitempty"`
}

type Response struct {
	ID              string    `json:"id"`
	TableType       string    `json:"table_type"`
	Name            string    `json:"name"`
	HourlyRateMinor int64     `json:"hourly_rate_minor"`
	EffectiveFrom   time.Time `json:"effective_from"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var (
	ErrInvalidTableType = errors.New("invalid_table_type")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidRate      = errors.New("invalid_rate")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrNoApplicableRate = errors.New("no_applicable_rate")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}

package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, status string) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	GetByCode(ctx context.Context, code string) (*Response, error)
	SetMaintenance(ctx context.Context, id string, enabled bool) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Code      string `json:"code"`
	TableType string `json:"table_type"`
}

type Response struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venue_id"`
	Code      string    `json:"code"`
	TableType string    `json:"table_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidCode      = errors.New("invalid_table_code")
	ErrInvalidTableType = errors.New("invalid_table_type")
	ErrInvalidID        = errors.New("invalid_id")
	ErrDuplicateCode    = errors.New("duplicate_table_code")
	ErrNotFound         = errors.New("not_found")
	ErrTableOccupied    = errors.New("already_occupied")
)

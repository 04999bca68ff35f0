// Package domain contains the food and beverage stock registry.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Item is one sellable stock item behind the counter.
type Item struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	SKU               string       `json:"sku" gorm:"type:text;not null;uniqueIndex"`
	Name              string       `json:"name" gorm:"type:text;not null"`
	Category          string       `json:"category" gorm:"type:text;not null;index"`
	PriceMinor        int64        `json:"price_minor" gorm:"not null"`
	StockQty          int64        `json:"stock_qty" gorm:"not null;default:0"`
	LowStockThreshold int64        `json:"low_stock_threshold" gorm:"not null;default:0"`
	Active            bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Item) TableName() string { return "inventory_items" }

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, category string) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Restock(ctx context.Context, id string, qty int64) (*Response, error)
}

// Stock is the decrement port used by billing. The decrement is
// conditional on sufficient stock so concurrent bills cannot oversell.
type Stock interface {
	Get(ctx context.Context, db *gorm.DB, id int64) (*Item, error)
	Decrement(ctx context.Context, db *gorm.DB, id, qty int64, at time.Time) (bool, error)
}

type CreateRequest struct {
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	PriceMinor        int64  `json:"price_minor"`
	StockQty          int64  `json:"stock_qty"`
	LowStockThreshold int64  `json:"low_stock_threshold"`
}

type UpdateRequest struct {
	ID                string  `json:"id"`
	Name              *string `json:"name,omitempty"`
	Category          *string `json:"category,omitempty"`
	PriceMinor        *int64  `json:"price_minor,omitempty"`
	LowStockThreshold *int64  `json:"low_stock_threshold,omitempty"`
	Active            *bool   `json:"active,omitempty"`
}

type Response struct {
	ID                string    `json:"id"`
	SKU               string    `json:"sku"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	PriceMinor        int64     `json:"price_minor"`
	StockQty          int64     `json:"stock_qty"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

var (
	ErrInvalidSKU        = errors.New("invalid_sku")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidPrice      = errors.New("invalid_price")
	ErrInvalidQty        = errors.New("invalid_qty")
	ErrInvalidID         = errors.New("invalid_id")
	ErrDuplicateSKU      = errors.New("duplicate_sku")
	ErrNotFound          = errors.New("not_found")
	ErrItemInactive      = errors.New("item_inactive")
	ErrInsufficientStock = errors.New("insufficient_stock")
)

// Package domain contains the venue membership registry.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Membership tiers. Tier discount percentages live in the billing
// policy, not here, so they can change without touching member rows.
const (
	TierRegular = "regular"
	TierSilver  = "silver"
	TierGold    = "gold"
)

// Member is one registered player. FreeMinutesBalance is promotional
// table time redeemable against session charges at billing.
type Member struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	Phone              string       `json:"phone" gorm:"type:text;not null;uniqueIndex"`
	Name               string       `json:"name" gorm:"type:text;not null"`
	Tier               string       `json:"tier" gorm:"type:text;not null;default:regular"`
	FreeMinutesBalance int64        `json:"free_minutes_balance" gorm:"not null;default:0"`
	Active             bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt          time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	GetByPhone(ctx context.Context, phone string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	GrantFreeMinutes(ctx context.Context, id string, minutes int64) (*Response, error)
}

// Ledger is the balance port used by billing. Consumption is a
// conditional decrement so two concurrent bills cannot overdraw.
type Ledger interface {
	Get(ctx context.Context, db *gorm.DB, id int64) (*Member, error)
	ConsumeFreeMinutes(ctx context.Context, db *gorm.DB, id, minutes int64, at time.Time) (bool, error)
}

type CreateRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
	Tier  string `json:"tier"`
}

type UpdateRequest struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Tier   *string `json:"tier,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type Response struct {
	ID                 string    `json:"id"`
	Phone              string    `json:"phone"`
	Name               string    `json:"name"`
	Tier               string    `json:"tier"`
	FreeMinutesBalance int64     `json:"free_minutes_balance"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

var (
	ErrInvalidPhone    = errors.New("invalid_phone")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidTier     = errors.New("invalid_tier")
	ErrInvalidMinutes  = errors.New("invalid_minutes")
	ErrInvalidID       = errors.New("invalid_id")
	ErrDuplicatePhone  = errors.New("duplicate_phone")
	ErrNotFound        = errors.New("not_found")
	ErrMemberInactive  = errors.New("member_inactive")
)

// Package domain contains the venue staff registry.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Employee roles.
const (
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleFloor   = "floor"
)

// Employee is one staff account. The POS identifies staff by short
// numeric PIN; only the bcrypt hash is stored.
type Employee struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Role      string       `json:"role" gorm:"type:text;not null"`
	PINHash   string       `json:"-" gorm:"column:pin_hash;type:text;not null"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Employee) TableName() string { return "employees" }

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	VerifyPIN(ctx context.Context, code, pin string) (*Response, error)
	SetPIN(ctx context.Context, id, pin string) error
	Deactivate(ctx context.Context, id string) error
}

type CreateRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Role string `json:"role"`
	PIN  string `json:"pin"`
}

type Response struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidCode     = errors.New("invalid_code")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidRole     = errors.New("invalid_role")
	ErrInvalidPIN      = errors.New("invalid_pin")
	ErrInvalidID       = errors.New("invalid_id")
	ErrDuplicateCode   = errors.New("duplicate_code")
	ErrNotFound        = errors.New("not_found")
	ErrPINMismatch     = errors.New("pin_mismatch")
	ErrEmployeeRetired = errors.New("employee_inactive")
)

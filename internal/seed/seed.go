// Package seed bootstraps a fresh venue so the POS is usable out of
// the box: a floor of tables, default tariffs and a manager account.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	employeedomain "github.com/baizehq/baize/internal/employee/domain"
	tabledomain "github.com/baizehq/baize/internal/table/domain"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
)

const (
	defaultManagerCode = "0001"
	defaultManagerName = "Manager"
	defaultManagerPIN  = "1234"
)

var defaultTariffs = []struct {
	tableType string
	name      string
	rateMinor int64
}{
	{"pool", "Pool standard", 8000},
	{"snooker", "Snooker standard", 12000},
	{"carom", "Carom standard", 10000},
}

var defaultTables = []struct {
	tableType string
	count     int
}{
	{"pool", 6},
	{"snooker", 2},
	{"carom", 2},
}

// EnsureVenueDefaults seeds tables, tariffs and the manager PIN when the
// venue database is empty. Re-running on a populated database is a no-op.
func EnsureVenueDefaults(db *gorm.DB, venueName string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	venueID := slug.Make(venueName)
	if venueID == "" {
		venueID = "venue"
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTables(ctx, tx, node, venueID); err != nil {
			return err
		}
		if err := ensureTariffs(ctx, tx, node); err != nil {
			return err
		}
		return ensureManager(ctx, tx, node)
	})
}

func ensureTables(ctx context.Context, tx *gorm.DB, node *snowflake.Node, venueID string) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&tabledomain.Table{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, group := range defaultTables {
		prefix := group.tableType[:1]
		for i := 1; i <= group.count; i++ {
			table := tabledomain.Table{
				ID:        node.Generate(),
				VenueID:   venueID,
				Code:      fmt.Sprintf("%s%02d", prefix, i),
				TableType: group.tableType,
				Status:    tabledomain.StatusAvailable,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&table).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureTariffs(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&tariffdomain.Rate{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, tariff := range defaultTariffs {
		rate := tariffdomain.Rate{
			ID:              node.Generate(),
			TableType:       tariff.tableType,
			Name:            tariff.name,
			HourlyRateMinor: tariff.rateMinor,
			EffectiveFrom:   now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.WithContext(ctx).Create(&rate).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureManager(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&employeedomain.Employee{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultManagerPIN), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	manager := employeedomain.Employee{
		ID:        node.Generate(),
		Code:      defaultManagerCode,
		Name:      defaultManagerName,
		Role:      employeedomain.RoleManager,
		PINHash:   string(hash),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&manager).Error
}

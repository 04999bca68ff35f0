package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	billingdomain "github.com/baizehq/baize/internal/billing/domain"
	"github.com/baizehq/baize/internal/config"
	employeedomain "github.com/baizehq/baize/internal/employee/domain"
	eventsdomain "github.com/baizehq/baize/internal/events/domain"
	inventorydomain "github.com/baizehq/baize/internal/inventory/domain"
	memberdomain "github.com/baizehq/baize/internal/member/domain"
	"github.com/baizehq/baize/internal/seed"
	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
	tabledomain "github.com/baizehq/baize/internal/table/domain"
	sessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Single-terminal sqlite and mysql deployments use the
			// model definitions directly.
			if err := conn.AutoMigrate(
				&tabledomain.Table{},
				&tariffdomain.Rate{},
				&sessiondomain.Session{},
				&sessiondomain.Pause{},
				&shiftdomain.Shift{},
				&shiftdomain.CashMovement{},
				&memberdomain.Member{},
				&inventorydomain.Item{},
				&employeedomain.Employee{},
				&billingdomain.Bill{},
				&billingdomain.BillItem{},
				&eventsdomain.Event{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureVenueDefaults(conn, cfg.VenueName)
	}),
)

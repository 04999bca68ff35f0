package hqmetrics

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/baizehq/baize/internal/billing/domain"
	"github.com/baizehq/baize/internal/config"
	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
	sessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
)

const pushInterval = 15 * time.Minute

var Module = fx.Module("hq.metrics",
	fx.Provide(NewPusher),
	fx.Provide(func(cfg config.Config, pusher Pusher, logger *zap.Logger) *VenueMetrics {
		if !cfg.HQ.Metrics.Enabled || pusher == nil {
			return nil
		}
		return New(pusher, cfg.HQ.VenueID, cfg.AppVersion, logger)
	}),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, m *VenueMetrics, logger *zap.Logger, db *gorm.DB) {
	if m == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting hq metrics background worker")
			go func() {
				ticker := time.NewTicker(pushInterval)
				defer ticker.Stop()

				sampleAndPush(ctx, m, db, logger)
				for {
					select {
					case <-ticker.C:
						sampleAndPush(ctx, m, db, logger)
					case <-ctx.Done():
						logger.Info("stopping hq metrics background worker")
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func sampleAndPush(ctx context.Context, m *VenueMetrics, db *gorm.DB, logger *zap.Logger) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.SetMemoryBytes(memStats.Sys)

	if db != nil {
		var openSessions int64
		if err := db.WithContext(ctx).
			Model(&sessiondomain.Session{}).
			Where("status IN ?", []string{sessiondomain.StatusActive, sessiondomain.StatusPaused}).
			Count(&openSessions).Error; err == nil {
			m.SetOpenSessions(openSessions)
		}

		var openShifts int64
		if err := db.WithContext(ctx).
			Model(&shiftdomain.Shift{}).
			Where("status = ?", shiftdomain.StatusOpen).
			Count(&openShifts).Error; err == nil {
			m.SetOpenShifts(openShifts)
		}

		midnight := time.Now().UTC().Truncate(24 * time.Hour)
		var billsToday int64
		if err := db.WithContext(ctx).
			Model(&billingdomain.Bill{}).
			Where("status = ? AND created_at >= ?", billingdomain.StatusSettled, midnight).
			Count(&billsToday).Error; err == nil {
			m.SetBillsToday(billsToday)
		}

		var revenue int64
		if err := db.WithContext(ctx).
			Model(&billingdomain.Bill{}).
			Where("status = ? AND created_at >= ?", billingdomain.StatusSettled, midnight).
			Select("COALESCE(SUM(total_minor), 0)").
			Scan(&revenue).Error; err == nil {
			m.SetRevenueTodayMinor(revenue)
		}
	}

	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := m.Push(pushCtx); err != nil {
		logger.Error("hq metrics push failed", zap.Error(err))
	}
}

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/baizehq/baize/internal/clock"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
	"github.com/baizehq/baize/pkg/repository"
)

func setupTariffService(t *testing.T, fake *clock.FakeClock) tariffdomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, db.AutoMigrate(&tariffdomain.Rate{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:   zap.NewNop(),
		Clock: fake,
		GenID: node,
		Repo:  repository.ProvideStore[tariffdomain.Rate](db),
	})
}

func TestResolvePicksLatestEffectiveRate(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := setupTariffService(t, fake)
	ctx := context.Background()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, r := range []tariffdomain.CreateRequest{
		{TableType: "pool", Name: "old", HourlyRateMinor: 8000, EffectiveFrom: &older},
		{TableType: "pool", Name: "current", HourlyRateMinor: 10000, EffectiveFrom: &newer},
		{TableType: "pool", Name: "planned", HourlyRateMinor: 12000, EffectiveFrom: &future},
	} {
		_, err := svc.Create(ctx, r)
		require.NoError(t, err)
	}

	rate, err := svc.Resolve(ctx, "pool", fake.Now())
	require.NoError(t, err)
	require.Equal(t, "current", rate.Name)
	require.Equal(t, int64(10000), rate.HourlyRateMinor)

	// After the future rate takes effect it wins.
	rate, err = svc.Resolve(ctx, "pool", future.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(12000), rate.HourlyRateMinor)
}

func TestResolveNoApplicableRate(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := setupTariffService(t, fake)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "snooker", fake.Now())
	require.ErrorIs(t, err, tariffdomain.ErrNoApplicableRate)

	// A rate only effective in the future does not apply now.
	future := fake.Now().Add(24 * time.Hour)
	_, err = svc.Create(ctx, tariffdomain.CreateRequest{
		TableType:       "snooker",
		Name:            "planned",
		HourlyRateMinor: 12000,
		EffectiveFrom:   &future,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, "snooker", fake.Now())
	require.ErrorIs(t, err, tariffdomain.ErrNoApplicableRate)
}

func TestCreateValidation(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := setupTariffService(t, fake)
	ctx := context.Background()

	_, err := svc.Create(ctx, tariffdomain.CreateRequest{TableType: "foosball", Name: "x", HourlyRateMinor: 1000})
	require.ErrorIs(t, err, tariffdomain.ErrInvalidTableType)

	_, err = svc.Create(ctx, tariffdomain.CreateRequest{TableType: "pool", Name: " ", HourlyRateMinor: 1000})
	require.ErrorIs(t, err, tariffdomain.ErrInvalidName)

	_, err = svc.Create(ctx, tariffdomain.CreateRequest{TableType: "pool", Name: "day", HourlyRateMinor: 0})
	require.ErrorIs(t, err, tariffdomain.ErrInvalidRate)
}

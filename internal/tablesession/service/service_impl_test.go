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
	"github.com/baizehq/baize/internal/config"
	tabledomain "github.com/baizehq/baize/internal/table/domain"
	sessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
	sessionrepo "github.com/baizehq/baize/internal/tablesession/repository"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
	"github.com/baizehq/baize/pkg/repository"
)

type tariffStub struct {
	rate *tariffdomain.Rate
	err  error
}

func (t *tariffStub) Create(ctx context.Context, req tariffdomain.CreateRequest) (*tariffdomain.Response, error) {
	return nil, t.err
}

func (t *tariffStub) List(ctx context.Context, tableType string) ([]tariffdomain.Response, error) {
	return nil, t.err
}

func (t *tariffStub) GetByID(ctx context.Context, id string) (*tariffdomain.Response, error) {
	return nil, t.err
}

func (t *tariffStub) Update(ctx context.Context, req tariffdomain.UpdateRequest) (*tariffdomain.Response, error) {
	return nil, t.err
}

func (t *tariffStub) Delete(ctx context.Context, id string) error {
	return t.err
}

func (t *tariffStub) Resolve(ctx context.Context, tableType string, at time.Time) (*tariffdomain.Rate, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.rate, nil
}

type publisherStub struct {
	events []string
}

func (p *publisherStub) Publish(ctx context.Context, eventType string, payload any) {
	p.events = append(p.events, eventType)
}

// cacheStub tracks which table ids currently map to a session, the way
// the redis mirror does in production.
type cacheStub struct {
	entries map[string]string
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: map[string]string{}}
}

func (c *cacheStub) Store(ctx context.Context, tableID, sessionID string) {
	c.entries[tableID] = sessionID
}

func (c *cacheStub) Clear(ctx context.Context, tableID string) {
	delete(c.entries, tableID)
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func openTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, db.AutoMigrate(models...))
	return db
}

func setupSessionService(t *testing.T, fake *clock.FakeClock, rateMinor int64) (sessiondomain.Service, *gorm.DB, tabledomain.Table, *cacheStub) {
	t.Helper()

	node := mustNode(t)
	db := openTestDB(t,
		&tabledomain.Table{},
		&tariffdomain.Rate{},
		&sessiondomain.Session{},
		&sessiondomain.Pause{},
	)

	table := tabledomain.Table{
		ID:        node.Generate(),
		VenueID:   "venue",
		Code:      "p01",
		TableType: "pool",
		Status:    tabledomain.StatusAvailable,
	}
	require.NoError(t, db.Create(&table).Error)

	cache := newCacheStub()
	holder := config.StaticPolicyHolder(config.DefaultBillingPolicy())
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     fake,
		GenID:     node,
		Policy:    holder,
		Repo:      sessionrepo.New(),
		TableRepo: repository.ProvideStore[tabledomain.Table](db),
		Cache:     cache,
		Tariff:    &tariffStub{rate: &tariffdomain.Rate{ID: node.Generate(), HourlyRateMinor: rateMinor}},
		Publisher: &publisherStub{},
	})

	return svc, db, table, cache
}

func TestStartStopChargesPerMinute(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, db, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)
	require.Equal(t, sessiondomain.StatusActive, started.Status)
	require.Equal(t, int64(10000), started.HourlyRateMinor)

	var occupied tabledomain.Table
	require.NoError(t, db.First(&occupied, "id = ?", table.ID).Error)
	require.Equal(t, tabledomain.StatusOccupied, occupied.Status)

	fake.Advance(90 * time.Minute)

	stopped, err := svc.Stop(ctx, started.ID)
	require.NoError(t, err)
	require.Equal(t, sessiondomain.StatusClosed, stopped.Status)
	require.Equal(t, int64(90), stopped.ElapsedMinutes)
	require.Equal(t, int64(15000), stopped.TimeChargeMinor)

	var freed tabledomain.Table
	require.NoError(t, db.First(&freed, "id = ?", table.ID).Error)
	require.Equal(t, tabledomain.StatusAvailable, freed.Status)
}

func TestPausedTimeIsNotCharged(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, _, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	fake.Advance(30 * time.Minute)
	_, err = svc.Pause(ctx, started.ID)
	require.NoError(t, err)

	fake.Advance(15 * time.Minute)
	_, err = svc.Resume(ctx, started.ID)
	require.NoError(t, err)

	fake.Advance(30 * time.Minute)
	stopped, err := svc.Stop(ctx, started.ID)
	require.NoError(t, err)

	require.Equal(t, int64(15*60), stopped.PausedSeconds)
	require.Equal(t, int64(60), stopped.ElapsedMinutes)
	require.Equal(t, int64(10000), stopped.TimeChargeMinor)
}

func TestStopWhilePausedClosesOpenPause(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, _, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	fake.Advance(20 * time.Minute)
	_, err = svc.Pause(ctx, started.ID)
	require.NoError(t, err)

	fake.Advance(40 * time.Minute)
	stopped, err := svc.Stop(ctx, started.ID)
	require.NoError(t, err)

	require.Equal(t, int64(40*60), stopped.PausedSeconds)
	require.Equal(t, int64(20), stopped.ElapsedMinutes)
}

func TestStartOnOccupiedTable(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, _, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	_, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	_, err = svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.ErrorIs(t, err, sessiondomain.ErrAlreadyOccupied)
}

func TestStartOnMaintenanceTable(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, db, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	require.NoError(t, db.Model(&tabledomain.Table{}).
		Where("id = ?", table.ID).
		Update("status", tabledomain.StatusMaintenance).Error)

	_, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.ErrorIs(t, err, sessiondomain.ErrTableRetired)
}

func TestStopTwice(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, _, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	fake.Advance(10 * time.Minute)
	_, err = svc.Stop(ctx, started.ID)
	require.NoError(t, err)

	_, err = svc.Stop(ctx, started.ID)
	require.ErrorIs(t, err, sessiondomain.ErrInvalidState)
}

func TestPauseTransitions(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, _, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	// Resume before pause is refused.
	_, err = svc.Resume(ctx, started.ID)
	require.ErrorIs(t, err, sessiondomain.ErrInvalidState)

	_, err = svc.Pause(ctx, started.ID)
	require.NoError(t, err)

	// Double pause is refused.
	_, err = svc.Pause(ctx, started.ID)
	require.ErrorIs(t, err, sessiondomain.ErrInvalidState)
}

func TestSubMinuteRoundsUpToOneMinute(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, _, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	fake.Advance(25 * time.Second)
	stopped, err := svc.Stop(ctx, started.ID)
	require.NoError(t, err)

	require.Equal(t, int64(1), stopped.ElapsedMinutes)
	require.Equal(t, int64(167), stopped.TimeChargeMinor)
}

func TestRatePinnedAtStart(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	node := mustNode(t)
	db := openTestDB(t,
		&tabledomain.Table{},
		&tariffdomain.Rate{},
		&sessiondomain.Session{},
		&sessiondomain.Pause{},
	)

	table := tabledomain.Table{
		ID:        node.Generate(),
		VenueID:   "venue",
		Code:      "p01",
		TableType: "pool",
		Status:    tabledomain.StatusAvailable,
	}
	require.NoError(t, db.Create(&table).Error)

	tariff := &tariffStub{rate: &tariffdomain.Rate{ID: node.Generate(), HourlyRateMinor: 10000}}
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     fake,
		GenID:     node,
		Policy:    config.StaticPolicyHolder(config.DefaultBillingPolicy()),
		Repo:      sessionrepo.New(),
		TableRepo: repository.ProvideStore[tabledomain.Table](db),
		Cache:     newCacheStub(),
		Tariff:    tariff,
		Publisher: &publisherStub{},
	})
	ctx := context.Background()

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	// A tariff change mid-session must not reprice it.
	tariff.rate = &tariffdomain.Rate{ID: node.Generate(), HourlyRateMinor: 99999}

	fake.Advance(60 * time.Minute)
	stopped, err := svc.Stop(ctx, started.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10000), stopped.TimeChargeMinor)
}

func TestMoveSessionReseatsTables(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, db, table, cache := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	target := tabledomain.Table{
		ID:        node.Generate(),
		VenueID:   "venue",
		Code:      "s05",
		TableType: "snooker",
		Status:    tabledomain.StatusAvailable,
	}
	require.NoError(t, db.Create(&target).Error)

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	fake.Advance(30 * time.Minute)
	moved, err := svc.Move(ctx, started.ID, target.ID.String())
	require.NoError(t, err)
	require.Equal(t, target.ID.String(), moved.TableID)
	require.Equal(t, "s05", moved.TableCode)
	require.Equal(t, "snooker", moved.TableType)
	require.Equal(t, sessiondomain.StatusActive, moved.Status)

	var source, dest tabledomain.Table
	require.NoError(t, db.First(&source, "id = ?", table.ID).Error)
	require.NoError(t, db.First(&dest, "id = ?", target.ID).Error)
	require.Equal(t, tabledomain.StatusAvailable, source.Status)
	require.Equal(t, tabledomain.StatusOccupied, dest.Status)

	require.NotContains(t, cache.entries, table.ID.String())
	require.Equal(t, started.ID, cache.entries[target.ID.String()])

	// The clock keeps running and the rate stays the one pinned at
	// start despite the table type change.
	fake.Advance(30 * time.Minute)
	stopped, err := svc.Stop(ctx, started.ID)
	require.NoError(t, err)
	require.Equal(t, int64(60), stopped.ElapsedMinutes)
	require.Equal(t, int64(10000), stopped.TimeChargeMinor)

	require.NoError(t, db.First(&dest, "id = ?", target.ID).Error)
	require.Equal(t, tabledomain.StatusAvailable, dest.Status)
}

func TestMoveSessionGuards(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, db, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	taken := tabledomain.Table{
		ID:        node.Generate(),
		VenueID:   "venue",
		Code:      "p02",
		TableType: "pool",
		Status:    tabledomain.StatusOccupied,
	}
	require.NoError(t, db.Create(&taken).Error)

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	_, err = svc.Move(ctx, started.ID, taken.ID.String())
	require.ErrorIs(t, err, sessiondomain.ErrAlreadyOccupied)

	fake.Advance(10 * time.Minute)
	_, err = svc.Stop(ctx, started.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&tabledomain.Table{}).
		Where("id = ?", taken.ID).
		Update("status", tabledomain.StatusAvailable).Error)

	_, err = svc.Move(ctx, started.ID, taken.ID.String())
	require.ErrorIs(t, err, sessiondomain.ErrInvalidState)
}

func TestActiveSessionCacheLifecycle(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, _, table, cache := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)
	require.Equal(t, started.ID, cache.entries[table.ID.String()])

	fake.Advance(5 * time.Minute)
	_, err = svc.Stop(ctx, started.ID)
	require.NoError(t, err)
	require.NotContains(t, cache.entries, table.ID.String())
}

func TestFullyPausedSessionChargesNothing(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	svc, _, table, _ := setupSessionService(t, fake, 10000)
	ctx := context.Background()

	started, err := svc.Start(ctx, sessiondomain.StartRequest{TableID: table.ID.String()})
	require.NoError(t, err)

	_, err = svc.Pause(ctx, started.ID)
	require.NoError(t, err)

	fake.Advance(45 * time.Minute)
	stopped, err := svc.Stop(ctx, started.ID)
	require.NoError(t, err)

	require.Equal(t, int64(45*60), stopped.PausedSeconds)
	require.Equal(t, int64(0), stopped.ElapsedMinutes)
	require.Equal(t, int64(0), stopped.TimeChargeMinor)
}

package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/baizehq/baize/internal/clock"
	eventsdomain "github.com/baizehq/baize/internal/events/domain"
)

func setupHub(t *testing.T) *Hub {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, db.AutoMigrate(&eventsdomain.Event{}))

	return NewHub(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
}

func TestPublishPersistsAndFansOut(t *testing.T) {
	hub := setupHub(t)
	ctx := context.Background()

	sub := hub.Subscribe()
	defer sub.Close()

	hub.Publish(ctx, eventsdomain.TypeSessionStarted, map[string]any{"table_code": "p01"})

	select {
	case event := <-sub.C:
		require.Equal(t, eventsdomain.TypeSessionStarted, event.Type)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	recent, err := hub.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, eventsdomain.TypeSessionStarted, recent[0].Type)
}

func TestClosedSubscriberIsDetached(t *testing.T) {
	hub := setupHub(t)
	ctx := context.Background()

	sub := hub.Subscribe()
	sub.Close()

	// Publishing after close must not block or panic.
	hub.Publish(ctx, eventsdomain.TypeShiftOpened, map[string]any{"register": "main"})

	recent, err := hub.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestRecentOrderAndLimit(t *testing.T) {
	hub := setupHub(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		hub.Publish(ctx, eventsdomain.TypeSessionStarted, map[string]any{"seq": i})
	}

	recent, err := hub.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
}

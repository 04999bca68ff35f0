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
	"github.com/baizehq/baize/internal/ratelimit"
	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
	shiftrepo "github.com/baizehq/baize/internal/shift/repository"
)

type billTotalsStub struct {
	cash int64
	card int64
	err  error
}

func (b *billTotalsStub) SalesTotals(ctx context.Context, register string, from time.Time, to *time.Time) (int64, int64, error) {
	return b.cash, b.card, b.err
}

type publisherStub struct {
	events []string
}

func (p *publisherStub) Publish(ctx context.Context, eventType string, payload any) {
	p.events = append(p.events, eventType)
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func setupShiftService(t *testing.T, fake *clock.FakeClock, bills *billTotalsStub, publisher *publisherStub) shiftdomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, db.AutoMigrate(&shiftdomain.Shift{}, &shiftdomain.CashMovement{}))

	return New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     fake,
		GenID:     mustNode(t),
		Policy:    config.StaticPolicyHolder(config.DefaultBillingPolicy()),
		Repo:      shiftrepo.New(),
		Bills:     bills,
		Limiter:   ratelimit.NewPOSLimiter(nil),
		Publisher: publisher,
	})
}

func TestOpenShiftOncePerRegister(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := setupShiftService(t, fake, &billTotalsStub{}, &publisherStub{})
	ctx := context.Background()

	opened, err := svc.Open(ctx, shiftdomain.OpenRequest{Register: "main", OpenedBy: "0001", OpeningFloatMinor: 500000})
	require.NoError(t, err)
	require.Equal(t, shiftdomain.StatusOpen, opened.Status)

	_, err = svc.Open(ctx, shiftdomain.OpenRequest{Register: "main", OpenedBy: "0002", OpeningFloatMinor: 100000})
	require.ErrorIs(t, err, shiftdomain.ErrShiftAlreadyActive)

	// A different register opens independently.
	_, err = svc.Open(ctx, shiftdomain.OpenRequest{Register: "bar", OpenedBy: "0002", OpeningFloatMinor: 100000})
	require.NoError(t, err)
}

func TestExpectedCashArithmetic(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	bills := &billTotalsStub{cash: 45000, card: 12000}
	svc := setupShiftService(t, fake, bills, &publisherStub{})
	ctx := context.Background()

	opened, err := svc.Open(ctx, shiftdomain.OpenRequest{Register: "main", OpenedBy: "0001", OpeningFloatMinor: 500000})
	require.NoError(t, err)

	movements := []shiftdomain.MovementRequest{
		{ShiftID: opened.ID, Type: shiftdomain.MovementSale, AmountMinor: 20000},
		{ShiftID: opened.ID, Type: shiftdomain.MovementAdjustment, AmountMinor: 10000, Reason: "float top-up"},
		{ShiftID: opened.ID, Type: shiftdomain.MovementPayout, AmountMinor: 15000, Reason: "supplier"},
		{ShiftID: opened.ID, Type: shiftdomain.MovementDrop, AmountMinor: 100000},
	}
	for _, m := range movements {
		_, err := svc.RecordMovement(ctx, m)
		require.NoError(t, err)
	}

	summary, err := svc.Summary(ctx, opened.ID)
	require.NoError(t, err)

	// 500000 + (20000+45000) + 10000 - 100000 - 15000
	require.Equal(t, int64(65000), summary.CashSalesMinor)
	require.Equal(t, int64(12000), summary.CardSalesMinor)
	require.Equal(t, int64(460000), summary.ExpectedCashMinor)
	require.Nil(t, summary.CountedCashMinor)
	require.Nil(t, summary.VarianceMinor)
}

func TestMovementTypes(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := setupShiftService(t, fake, &billTotalsStub{}, &publisherStub{})
	ctx := context.Background()

	opened, err := svc.Open(ctx, shiftdomain.OpenRequest{Register: "main", OpenedBy: "0001", OpeningFloatMinor: 0})
	require.NoError(t, err)

	for _, movementType := range []string{
		shiftdomain.MovementSale,
		shiftdomain.MovementDrop,
		shiftdomain.MovementPayout,
		shiftdomain.MovementAdjustment,
	} {
		recorded, err := svc.RecordMovement(ctx, shiftdomain.MovementRequest{
			ShiftID:     opened.ID,
			Type:        movementType,
			AmountMinor: 100,
		})
		require.NoError(t, err, movementType)
		require.Equal(t, movementType, recorded.Type)
	}

	for _, movementType := range []string{"paid_in", "paid_out", "refund", "loan"} {
		_, err := svc.RecordMovement(ctx, shiftdomain.MovementRequest{
			ShiftID:     opened.ID,
			Type:        movementType,
			AmountMinor: 100,
		})
		require.ErrorIs(t, err, shiftdomain.ErrInvalidMovementType, movementType)
	}
}

func TestCloseFreezesVariance(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	bills := &billTotalsStub{cash: 45000}
	publisher := &publisherStub{}
	svc := setupShiftService(t, fake, bills, publisher)
	ctx := context.Background()

	opened, err := svc.Open(ctx, shiftdomain.OpenRequest{Register: "main", OpenedBy: "0001", OpeningFloatMinor: 500000})
	require.NoError(t, err)

	fake.Advance(8 * time.Hour)

	closed, err := svc.Close(ctx, shiftdomain.CloseRequest{ShiftID: opened.ID, CountedCashMinor: 544500})
	require.NoError(t, err)
	require.Equal(t, shiftdomain.StatusClosed, closed.Status)
	require.Equal(t, int64(545000), closed.ExpectedCashMinor)
	require.NotNil(t, closed.VarianceMinor)
	require.Equal(t, int64(-500), *closed.VarianceMinor)

	// Bill corrections after close must not change the frozen numbers.
	bills.cash = 999999

	summary, err := svc.Summary(ctx, opened.ID)
	require.NoError(t, err)
	require.Equal(t, int64(545000), summary.ExpectedCashMinor)
	require.NotNil(t, summary.CountedCashMinor)
	require.Equal(t, int64(544500), *summary.CountedCashMinor)
	require.Equal(t, int64(-500), *summary.VarianceMinor)
}

func TestCloseTwice(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := setupShiftService(t, fake, &billTotalsStub{}, &publisherStub{})
	ctx := context.Background()

	opened, err := svc.Open(ctx, shiftdomain.OpenRequest{Register: "main", OpenedBy: "0001", OpeningFloatMinor: 0})
	require.NoError(t, err)

	_, err = svc.Close(ctx, shiftdomain.CloseRequest{ShiftID: opened.ID, CountedCashMinor: 0})
	require.NoError(t, err)

	_, err = svc.Close(ctx, shiftdomain.CloseRequest{ShiftID: opened.ID, CountedCashMinor: 0})
	require.ErrorIs(t, err, shiftdomain.ErrShiftNotActive)
}

func TestMovementValidation(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := setupShiftService(t, fake, &billTotalsStub{}, &publisherStub{})
	ctx := context.Background()

	opened, err := svc.Open(ctx, shiftdomain.OpenRequest{Register: "main", OpenedBy: "0001", OpeningFloatMinor: 0})
	require.NoError(t, err)

	_, err = svc.RecordMovement(ctx, shiftdomain.MovementRequest{ShiftID: opened.ID, Type: "loan", AmountMinor: 100})
	require.ErrorIs(t, err, shiftdomain.ErrInvalidMovementType)

	_, err = svc.RecordMovement(ctx, shiftdomain.MovementRequest{ShiftID: opened.ID, Type: shiftdomain.MovementSale, AmountMinor: 0})
	require.ErrorIs(t, err, shiftdomain.ErrInvalidAmount)

	_, err = svc.Close(ctx, shiftdomain.CloseRequest{ShiftID: opened.ID, CountedCashMinor: 0})
	require.NoError(t, err)

	_, err = svc.RecordMovement(ctx, shiftdomain.MovementRequest{ShiftID: opened.ID, Type: shiftdomain.MovementSale, AmountMinor: 100})
	require.ErrorIs(t, err, shiftdomain.ErrShiftNotActive)
}

func TestVarianceAlertEvent(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	publisher := &publisherStub{}
	svc := setupShiftService(t, fake, &billTotalsStub{}, publisher)
	ctx := context.Background()

	opened, err := svc.Open(ctx, shiftdomain.OpenRequest{Register: "main", OpenedBy: "0001", OpeningFloatMinor: 100000})
	require.NoError(t, err)

	// Default alert threshold is 500 minor units.
	_, err = svc.Close(ctx, shiftdomain.CloseRequest{ShiftID: opened.ID, CountedCashMinor: 99000})
	require.NoError(t, err)

	require.Contains(t, publisher.events, "shift.variance_alert")
}

func TestGetActive(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := setupShiftService(t, fake, &billTotalsStub{}, &publisherStub{})
	ctx := context.Background()

	_, err := svc.GetActive(ctx, "main")
	require.ErrorIs(t, err, shiftdomain.ErrShiftNotActive)

	opened, err := svc.Open(ctx, shiftdomain.OpenRequest{Register: "main", OpenedBy: "0001", OpeningFloatMinor: 0})
	require.NoError(t, err)

	active, err := svc.GetActive(ctx, "main")
	require.NoError(t, err)
	require.Equal(t, opened.ID, active.ID)
}

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

	billingdomain "github.com/baizehq/baize/internal/billing/domain"
	billingrepo "github.com/baizehq/baize/internal/billing/repository"
	"github.com/baizehq/baize/internal/clock"
	"github.com/baizehq/baize/internal/config"
	inventorydomain "github.com/baizehq/baize/internal/inventory/domain"
	inventoryrepo "github.com/baizehq/baize/internal/inventory/repository"
	memberdomain "github.com/baizehq/baize/internal/member/domain"
	memberrepo "github.com/baizehq/baize/internal/member/repository"
	sessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
	sessionrepo "github.com/baizehq/baize/internal/tablesession/repository"
)

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

type billingFixture struct {
	svc  billingdomain.Service
	db   *gorm.DB
	node *snowflake.Node
	fake *clock.FakeClock
	pub  *publisherStub
}

func setupBillingService(t *testing.T) *billingFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, db.AutoMigrate(
		&sessiondomain.Session{},
		&sessiondomain.Pause{},
		&inventorydomain.Item{},
		&memberdomain.Member{},
		&billingdomain.Bill{},
		&billingdomain.BillItem{},
	))

	node := mustNode(t)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC))
	publisher := &publisherStub{}

	cfg := config.Config{DefaultRegister: "main"}
	svc := New(Params{
		Cfg:         cfg,
		DB:          db,
		Log:         zap.NewNop(),
		Clock:       fake,
		GenID:       node,
		Policy:      config.StaticPolicyHolder(config.DefaultBillingPolicy()),
		Repo:        billingrepo.New(db),
		SessionRepo: sessionrepo.New(),
		Stock:       inventoryrepo.NewStock(),
		Members:     memberrepo.NewLedger(),
		Publisher:   publisher,
	})

	return &billingFixture{svc: svc, db: db, node: node, fake: fake, pub: publisher}
}

func (f *billingFixture) seedClosedSession(t *testing.T, chargeMinor, elapsedMinutes, rateMinor int64, memberID *snowflake.ID) *sessiondomain.Session {
	t.Helper()

	now := f.fake.Now()
	closedAt := now.Add(-5 * time.Minute)
	session := &sessiondomain.Session{
		ID:              f.node.Generate(),
		TableID:         f.node.Generate(),
		TableCode:       "p01",
		TableType:       "pool",
		MemberID:        memberID,
		RateID:          f.node.Generate(),
		HourlyRateMinor: rateMinor,
		Status:          sessiondomain.StatusClosed,
		StartedAt:       closedAt.Add(-time.Duration(elapsedMinutes) * time.Minute),
		ClosedAt:        &closedAt,
		ElapsedMinutes:  elapsedMinutes,
		TimeChargeMinor: chargeMinor,
	}
	require.NoError(t, f.db.Create(session).Error)
	return session
}

func (f *billingFixture) seedItem(t *testing.T, sku string, priceMinor, stock, threshold int64) *inventorydomain.Item {
	t.Helper()

	item := &inventorydomain.Item{
		ID:                f.node.Generate(),
		SKU:               sku,
		Name:              sku,
		Category:          "drinks",
		PriceMinor:        priceMinor,
		StockQty:          stock,
		LowStockThreshold: threshold,
		Active:            true,
	}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

func (f *billingFixture) seedMember(t *testing.T, tier string, freeMinutes int64) *memberdomain.Member {
	t.Helper()

	member := &memberdomain.Member{
		ID:                 f.node.Generate(),
		Phone:              fmt.Sprintf("+62%d", f.node.Generate()),
		Name:               "member",
		Tier:               tier,
		FreeMinutesBalance: freeMinutes,
		Active:             true,
	}
	require.NoError(t, f.db.Create(member).Error)
	return member
}

func strPtr(s string) *string { return &s }

func TestBillComposesSessionAndItems(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	session := f.seedClosedSession(t, 15000, 90, 10000, nil)
	cola := f.seedItem(t, "cola", 5000, 10, 0)

	bill, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		SessionID: strPtr(session.ID.String()),
		Items: []billingdomain.ItemRequest{
			{ItemID: cola.ID.String(), Qty: 2},
		},
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 30000,
	})
	require.NoError(t, err)

	require.Equal(t, int64(15000), bill.TimeChargeMinor)
	require.Equal(t, int64(10000), bill.ItemsSubtotalMinor)
	require.Equal(t, int64(25000), bill.SubtotalMinor)
	require.Equal(t, int64(0), bill.DiscountMinor)
	require.Equal(t, int64(25000), bill.TotalMinor)
	require.Equal(t, int64(5000), bill.ChangeMinor)
	require.Equal(t, bill.SubtotalMinor-bill.DiscountMinor+bill.TaxMinor+bill.TipMinor, bill.TotalMinor)
	require.Len(t, bill.Items, 1)

	// The session now carries the bill reference.
	var stored sessiondomain.Session
	require.NoError(t, f.db.First(&stored, "id = ?", session.ID).Error)
	require.NotNil(t, stored.BillID)
	require.Equal(t, bill.ID, stored.BillID.String())
}

func TestInsufficientTender(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	session := f.seedClosedSession(t, 15000, 90, 10000, nil)

	_, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		SessionID:       strPtr(session.ID.String()),
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 14999,
	})
	require.ErrorIs(t, err, billingdomain.ErrInsufficientTender)

	// Nothing was attached on the failed attempt.
	var stored sessiondomain.Session
	require.NoError(t, f.db.First(&stored, "id = ?", session.ID).Error)
	require.Nil(t, stored.BillID)
}

func TestOpenSessionCannotBeBilled(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	session := &sessiondomain.Session{
		ID:              f.node.Generate(),
		TableID:         f.node.Generate(),
		TableCode:       "p01",
		TableType:       "pool",
		RateID:          f.node.Generate(),
		HourlyRateMinor: 10000,
		Status:          sessiondomain.StatusActive,
		StartedAt:       f.fake.Now().Add(-time.Hour),
	}
	require.NoError(t, f.db.Create(session).Error)

	_, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		SessionID:       strPtr(session.ID.String()),
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 100000,
	})
	require.ErrorIs(t, err, billingdomain.ErrSessionStillOpen)
}

func TestSessionBilledOnce(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	session := f.seedClosedSession(t, 15000, 90, 10000, nil)

	_, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		SessionID:       strPtr(session.ID.String()),
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 15000,
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, billingdomain.CreateRequest{
		SessionID:       strPtr(session.ID.String()),
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 15000,
	})
	require.ErrorIs(t, err, billingdomain.ErrSessionAlreadyBilled)
}

func TestTierDiscountThenFreeMinutes(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	member := f.seedMember(t, memberdomain.TierSilver, 30)
	memberID := member.ID
	session := f.seedClosedSession(t, 15000, 90, 10000, &memberID)

	bill, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		SessionID:       strPtr(session.ID.String()),
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 10000,
	})
	require.NoError(t, err)

	// Silver takes 10% off the full 15000 time charge, then 30 free
	// minutes are credited at the full 10000/hr rate.
	require.Equal(t, int64(30), bill.FreeMinutesUsed)
	require.Equal(t, int64(6500), bill.DiscountMinor)
	require.Equal(t, int64(8500), bill.TotalMinor)
	require.Equal(t, int64(1500), bill.ChangeMinor)

	var stored memberdomain.Member
	require.NoError(t, f.db.First(&stored, "id = ?", member.ID).Error)
	require.Equal(t, int64(0), stored.FreeMinutesBalance)
}

func TestMemberDiscountLeavesItemsFullPrice(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	member := f.seedMember(t, memberdomain.TierGold, 0)
	memberID := member.ID
	session := f.seedClosedSession(t, 15000, 90, 10000, &memberID)
	cola := f.seedItem(t, "cola", 5000, 10, 0)

	bill, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		SessionID: strPtr(session.ID.String()),
		Items: []billingdomain.ItemRequest{
			{ItemID: cola.ID.String(), Qty: 2},
		},
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 30000,
	})
	require.NoError(t, err)

	// Gold takes 15% of the 15000 time charge; the 10000 of items is
	// charged in full.
	require.Equal(t, int64(2250), bill.DiscountMinor)
	require.Equal(t, int64(22750), bill.TotalMinor)
}

func TestTipIncludedInTotal(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	cola := f.seedItem(t, "cola", 5000, 10, 0)

	bill, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		Items: []billingdomain.ItemRequest{
			{ItemID: cola.ID.String(), Qty: 1},
		},
		PaymentMethod:   billingdomain.PaymentCash,
		TipMinor:        1000,
		TenderCashMinor: 6000,
	})
	require.NoError(t, err)

	require.Equal(t, int64(1000), bill.TipMinor)
	require.Equal(t, int64(6000), bill.TotalMinor)
	require.Equal(t, bill.SubtotalMinor-bill.DiscountMinor+bill.TaxMinor+bill.TipMinor, bill.TotalMinor)
	require.Equal(t, int64(0), bill.ChangeMinor)

	_, err = f.svc.Create(ctx, billingdomain.CreateRequest{
		Items: []billingdomain.ItemRequest{
			{ItemID: cola.ID.String(), Qty: 1},
		},
		PaymentMethod:   billingdomain.PaymentCash,
		TipMinor:        -1,
		TenderCashMinor: 6000,
	})
	require.ErrorIs(t, err, billingdomain.ErrInvalidAmount)
}

func TestSplitTender(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	session := f.seedClosedSession(t, 15000, 90, 10000, nil)

	// Cash plus card short of the total is rejected.
	_, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		SessionID:       strPtr(session.ID.String()),
		PaymentMethod:   billingdomain.PaymentCard,
		TenderCashMinor: 10000,
		TenderCardMinor: 4999,
	})
	require.ErrorIs(t, err, billingdomain.ErrInsufficientTender)

	bill, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		SessionID:       strPtr(session.ID.String()),
		PaymentMethod:   billingdomain.PaymentCard,
		TenderCashMinor: 5000,
		TenderCardMinor: 10000,
	})
	require.NoError(t, err)
	require.Equal(t, int64(5000), bill.TenderCashMinor)
	require.Equal(t, int64(10000), bill.TenderCardMinor)
	require.Equal(t, int64(0), bill.ChangeMinor)
}

func TestOtherPaymentMethod(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	cola := f.seedItem(t, "cola", 5000, 10, 0)

	bill, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		Items: []billingdomain.ItemRequest{
			{ItemID: cola.ID.String(), Qty: 1},
		},
		PaymentMethod: billingdomain.PaymentOther,
	})
	require.NoError(t, err)

	// A non-cash sale keyed without amounts settles exactly.
	require.Equal(t, billingdomain.PaymentOther, bill.PaymentMethod)
	require.Equal(t, int64(0), bill.TenderCashMinor)
	require.Equal(t, bill.TotalMinor, bill.TenderCardMinor)

	_, err = f.svc.Create(ctx, billingdomain.CreateRequest{
		Items: []billingdomain.ItemRequest{
			{ItemID: cola.ID.String(), Qty: 1},
		},
		PaymentMethod: "voucher",
	})
	require.ErrorIs(t, err, billingdomain.ErrInvalidPayment)
}

func TestStockDecrementAndLowStockEvent(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	cola := f.seedItem(t, "cola", 5000, 3, 2)

	_, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		Items: []billingdomain.ItemRequest{
			{ItemID: cola.ID.String(), Qty: 1},
		},
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 5000,
	})
	require.NoError(t, err)
	require.Contains(t, f.pub.events, "inventory.low_stock")

	var stored inventorydomain.Item
	require.NoError(t, f.db.First(&stored, "id = ?", cola.ID).Error)
	require.Equal(t, int64(2), stored.StockQty)

	_, err = f.svc.Create(ctx, billingdomain.CreateRequest{
		Items: []billingdomain.ItemRequest{
			{ItemID: cola.ID.String(), Qty: 5},
		},
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 25000,
	})
	require.ErrorIs(t, err, inventorydomain.ErrInsufficientStock)
}

func TestVoidBill(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	cola := f.seedItem(t, "cola", 5000, 10, 0)

	bill, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		Items: []billingdomain.ItemRequest{
			{ItemID: cola.ID.String(), Qty: 1},
		},
		PaymentMethod: billingdomain.PaymentCard,
	})
	require.NoError(t, err)

	voided, err := f.svc.Void(ctx, bill.ID, "wrong table")
	require.NoError(t, err)
	require.Equal(t, billingdomain.StatusVoided, voided.Status)

	_, err = f.svc.Void(ctx, bill.ID, "again")
	require.ErrorIs(t, err, billingdomain.ErrAlreadyVoided)
}

func TestEmptyBillRejected(t *testing.T) {
	f := setupBillingService(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, billingdomain.CreateRequest{
		PaymentMethod:   billingdomain.PaymentCash,
		TenderCashMinor: 1000,
	})
	require.ErrorIs(t, err, billingdomain.ErrEmptyBill)
}

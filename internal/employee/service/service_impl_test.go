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
	employeedomain "github.com/baizehq/baize/internal/employee/domain"
	"github.com/baizehq/baize/pkg/repository"
)

func setupEmployeeService(t *testing.T) employeedomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, db.AutoMigrate(&employeedomain.Employee{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		GenID: node,
		Repo:  repository.ProvideStore[employeedomain.Employee](db),
	})
}

func TestVerifyPIN(t *testing.T) {
	svc := setupEmployeeService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, employeedomain.CreateRequest{
		Code: "0007",
		Name: "cashier",
		Role: employeedomain.RoleCashier,
		PIN:  "4321",
	})
	require.NoError(t, err)

	verified, err := svc.VerifyPIN(ctx, "0007", "4321")
	require.NoError(t, err)
	require.Equal(t, created.ID, verified.ID)

	_, err = svc.VerifyPIN(ctx, "0007", "1111")
	require.ErrorIs(t, err, employeedomain.ErrPINMismatch)
}

func TestPINFormat(t *testing.T) {
	svc := setupEmployeeService(t)
	ctx := context.Background()

	for _, pin := range []string{"", "12", "123456789", "abcd"} {
		_, err := svc.Create(ctx, employeedomain.CreateRequest{
			Code: "0008",
			Name: "floor",
			Role: employeedomain.RoleFloor,
			PIN:  pin,
		})
		require.ErrorIs(t, err, employeedomain.ErrInvalidPIN)
	}
}

func TestDeactivatedEmployeeCannotVerify(t *testing.T) {
	svc := setupEmployeeService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, employeedomain.CreateRequest{
		Code: "0009",
		Name: "manager",
		Role: employeedomain.RoleManager,
		PIN:  "9999",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, created.ID))

	_, err = svc.VerifyPIN(ctx, "0009", "9999")
	require.ErrorIs(t, err, employeedomain.ErrEmployeeRetired)
}

func TestDuplicateCode(t *testing.T) {
	svc := setupEmployeeService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, employeedomain.CreateRequest{
		Code: "0010", Name: "a", Role: employeedomain.RoleCashier, PIN: "1234",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, employeedomain.CreateRequest{
		Code: "0010", Name: "b", Role: employeedomain.RoleCashier, PIN: "1234",
	})
	require.ErrorIs(t, err, employeedomain.ErrDuplicateCode)
}

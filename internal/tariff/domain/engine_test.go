package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baizehq/baize/internal/config"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
)

func perMinutePolicy() config.BillingPolicy {
	p := config.DefaultBillingPolicy()
	p.Proration = config.ProrationPerMinute
	return p
}

func hourBlockPolicy() config.BillingPolicy {
	p := config.DefaultBillingPolicy()
	p.Proration = config.ProrationHourBlock
	return p
}

func TestComputeChargePerMinute(t *testing.T) {
	cases := []struct {
		name    string
		minutes int64
		rate    int64
		want    int64
	}{
		{name: "ninety minutes at hundred per hour", minutes: 90, rate: 10000, want: 15000},
		{name: "exact hour", minutes: 60, rate: 10000, want: 10000},
		{name: "one minute", minutes: 1, rate: 10000, want: 167},
		{name: "rounds half up", minutes: 1, rate: 90, want: 2},
		{name: "rounds down below half", minutes: 1, rate: 80, want: 1},
		{name: "zero minutes", minutes: 0, rate: 10000, want: 0},
		{name: "zero rate", minutes: 90, rate: 0, want: 0},
	}

	policy := perMinutePolicy()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tariffdomain.ComputeCharge(tc.minutes, tc.rate, policy)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestComputeChargeHourBlock(t *testing.T) {
	policy := hourBlockPolicy()

	require.Equal(t, int64(20000), tariffdomain.ComputeCharge(90, 10000, policy))
	require.Equal(t, int64(10000), tariffdomain.ComputeCharge(60, 10000, policy))
	require.Equal(t, int64(10000), tariffdomain.ComputeCharge(1, 10000, policy))
	require.Equal(t, int64(0), tariffdomain.ComputeCharge(0, 10000, policy))
}

func TestMemberDiscount(t *testing.T) {
	policy := config.DefaultBillingPolicy()

	require.Equal(t, int64(1500), tariffdomain.MemberDiscount(15000, "silver", policy))
	require.Equal(t, int64(2250), tariffdomain.MemberDiscount(15000, "gold", policy))
	require.Equal(t, int64(0), tariffdomain.MemberDiscount(15000, "bronze", policy))
	require.Equal(t, int64(0), tariffdomain.MemberDiscount(0, "gold", policy))

	// A tier configured above 100% is clamped to the full charge.
	policy.TierDiscountsBps["vip"] = 25000
	require.Equal(t, int64(15000), tariffdomain.MemberDiscount(15000, "vip", policy))
}

func TestFreeMinutesCredit(t *testing.T) {
	used, credit := tariffdomain.FreeMinutesCredit(30, 90, 10000)
	require.Equal(t, int64(30), used)
	require.Equal(t, int64(5000), credit)

	// Balance larger than the session only consumes the elapsed minutes.
	used, credit = tariffdomain.FreeMinutesCredit(200, 90, 10000)
	require.Equal(t, int64(90), used)
	require.Equal(t, int64(15000), credit)

	used, credit = tariffdomain.FreeMinutesCredit(0, 90, 10000)
	require.Equal(t, int64(0), used)
	require.Equal(t, int64(0), credit)
}

func TestTax(t *testing.T) {
	policy := config.DefaultBillingPolicy()
	policy.TaxRateBps = 1100

	require.Equal(t, int64(1650), tariffdomain.Tax(15000, policy))

	policy.TaxRateBps = 0
	require.Equal(t, int64(0), tariffdomain.Tax(15000, policy))
}

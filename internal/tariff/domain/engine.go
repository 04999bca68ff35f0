package domain

import "github.com/baizehq/baize/internal/config"

// ComputeCharge converts elapsed chargeable minutes into minor units.
//
// Per-minute proration rounds half-up on the minute product, so a 90 minute
// session at 10000/hour charges round(90*10000/60) = 15000. Hour-block mode
// charges whole started hours. Both are deterministic for a fixed policy.
func ComputeCharge(elapsedMinutes, hourlyRateMinor int64, policy config.BillingPolicy) int64 {
	if elapsedMinutes <= 0 || hourlyRateMinor <= 0 {
		return 0
	}
	switch policy.Proration {
	case config.ProrationHourBlock:
		hours := (elapsedMinutes + 59) / 60
		return hours * hourlyRateMinor
	default:
		return roundHalfUpDiv(elapsedMinutes*hourlyRateMinor, 60)
	}
}

// MemberDiscount returns the discount in minor units a membership tier earns
// on a charge: silver and gold percentages come from the billing policy, in
// basis points. Unknown tiers earn nothing.
func MemberDiscount(chargeMinor int64, tier string, policy config.BillingPolicy) int64 {
	if chargeMinor <= 0 {
		return 0
	}
	bps, ok := policy.TierDiscountsBps[tier]
	if !ok || bps <= 0 {
		return 0
	}
	if bps > 10000 {
		bps = 10000
	}
	return roundHalfUpDiv(chargeMinor*bps, 10000)
}

// FreeMinutesCredit values a free-minutes redemption against the session's
// pinned hourly rate. It returns the minutes actually consumed and the
// credit in minor units; minutes consumed never exceed either the balance
// or the elapsed minutes.
func FreeMinutesCredit(balanceMinutes, elapsedMinutes, hourlyRateMinor int64) (minutesUsed, creditMinor int64) {
	if balanceMinutes <= 0 || elapsedMinutes <= 0 || hourlyRateMinor <= 0 {
		return 0, 0
	}
	minutesUsed = balanceMinutes
	if minutesUsed > elapsedMinutes {
		minutesUsed = elapsedMinutes
	}
	creditMinor = roundHalfUpDiv(minutesUsed*hourlyRateMinor, 60)
	return minutesUsed, creditMinor
}

// Tax applies the policy tax rate (basis points) to a subtotal, half-up.
func Tax(subtotalMinor int64, policy config.BillingPolicy) int64 {
	if subtotalMinor <= 0 || policy.TaxRateBps <= 0 {
		return 0
	}
	return roundHalfUpDiv(subtotalMinor*policy.TaxRateBps, 10000)
}

func roundHalfUpDiv(numerator, denominator int64) int64 {
	if denominator <= 0 {
		return 0
	}
	if numerator <= 0 {
		return 0
	}
	return (numerator + denominator/2) / denominator
}

package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ProrationMode controls how elapsed table time converts to money.
type ProrationMode string

const (
	// ProrationPerMinute charges round(minutes * hourlyRate / 60), half-up.
	ProrationPerMinute ProrationMode = "per_minute"
	// ProrationHourBlock charges ceil(minutes/60) full hours.
	ProrationHourBlock ProrationMode = "hour_block"
)

// BillingPolicy is the venue-level billing policy, hot-reloadable from
// a mounted policy.yml so rate rounding and tier discounts can change
// without a redeploy.
type BillingPolicy struct {
	Proration         ProrationMode `mapstructure:"proration"`
	TaxRateBps        int64         `mapstructure:"taxRateBps"`
	TierDiscountsBps  map[string]int64 `mapstructure:"tierDiscountsBps"`
	VarianceAlertMinor int64        `mapstructure:"varianceAlertMinor"`
}

func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		Proration:  ProrationPerMinute,
		TaxRateBps: 0,
		TierDiscountsBps: map[string]int64{
			"silver": 1000,
			"gold":   1500,
		},
		VarianceAlertMinor: 500,
	}
}

// PolicyHolder exposes the current BillingPolicy; reads are lock-free.
type PolicyHolder struct {
	current atomic.Value // holds BillingPolicy
}

func NewPolicyHolder() (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/baize/config")
	v.AddConfigPath("/etc/baize")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BAIZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultBillingPolicy()
		v.SetDefault("billing.proration", string(defaults.Proration))
		v.SetDefault("billing.taxRateBps", defaults.TaxRateBps)
		v.SetDefault("billing.tierDiscountsBps", defaults.TierDiscountsBps)
		v.SetDefault("billing.varianceAlertMinor", defaults.VarianceAlertMinor)
	}

	var policy BillingPolicy
	if err := v.UnmarshalKey("billing", &policy); err != nil {
		return nil, err
	}
	normalizePolicy(&policy)
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	holder := &PolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		var next BillingPolicy
		if err := v.UnmarshalKey("billing", &next); err != nil {
			log.Printf("billing policy reload failed: %v", err)
			return
		}
		normalizePolicy(&next)
		if err := validatePolicy(next); err != nil {
			log.Printf("billing policy reload rejected: %v", err)
			return
		}
		holder.current.Store(next)
	})

	return holder, nil
}

// StaticPolicyHolder wraps a fixed policy with no file watching.
func StaticPolicyHolder(policy BillingPolicy) *PolicyHolder {
	normalizePolicy(&policy)
	holder := &PolicyHolder{}
	holder.current.Store(policy)
	return holder
}

// Current returns the active billing policy.
func (h *PolicyHolder) Current() BillingPolicy {
	if h == nil {
		return DefaultBillingPolicy()
	}
	if policy, ok := h.current.Load().(BillingPolicy); ok {
		return policy
	}
	return DefaultBillingPolicy()
}

func normalizePolicy(p *BillingPolicy) {
	switch ProrationMode(strings.ToLower(strings.TrimSpace(string(p.Proration)))) {
	case ProrationHourBlock:
		p.Proration = ProrationHourBlock
	default:
		p.Proration = ProrationPerMinute
	}
	if p.TierDiscountsBps == nil {
		p.TierDiscountsBps = DefaultBillingPolicy().TierDiscountsBps
	}
}

func validatePolicy(p BillingPolicy) error {
	if p.TaxRateBps < 0 || p.TaxRateBps > 10000 {
		return errors.New("billing.taxRateBps must be within [0, 10000]")
	}
	for tier, bps := range p.TierDiscountsBps {
		if bps < 0 || bps > 10000 {
			return errors.New("billing.tierDiscountsBps." + tier + " must be within [0, 10000]")
		}
	}
	if p.VarianceAlertMinor < 0 {
		return errors.New("billing.varianceAlertMinor must be non-negative")
	}
	return nil
}

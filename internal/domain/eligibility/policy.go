package eligibility

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// ThresholdFunc scales a position's base threshold by the tags applied.
// It must be non-decreasing in tags and strictly increasing for a positive base.
type ThresholdFunc func(base decimal.Decimal, tagsApplied int) decimal.Decimal

// CostFunc prices the next tag given the tags already applied.
// It must be strictly increasing in tags.
type CostFunc func(tagsApplied int) int64

// Policy holds the eligibility schedule.
type Policy struct {
	HitterBase  decimal.Decimal
	PitcherBase decimal.Decimal
	Threshold   ThresholdFunc
	NextTagCost CostFunc
}

const (
	DefaultHitterBase        = 140
	DefaultPitcherBase       = 50
	DefaultTagBaseCost       = 5
	DefaultTagCostMultiplier = 2
)

func DefaultPolicy() Policy {
	return Policy{
		HitterBase:  decimal.NewFromInt(DefaultHitterBase),
		PitcherBase: decimal.NewFromInt(DefaultPitcherBase),
		Threshold:   LinearThreshold(),
		NextTagCost: GeometricCost(DefaultTagBaseCost, DefaultTagCostMultiplier),
	}
}

func (p Policy) Validate() error {
	if !p.HitterBase.IsPositive() {
		return errors.New("hitter base threshold must be > 0")
	}
	if !p.PitcherBase.IsPositive() {
		return errors.New("pitcher base threshold must be > 0")
	}
	if p.Threshold == nil {
		return errors.New("threshold function is required")
	}
	if p.NextTagCost == nil {
		return errors.New("tag cost function is required")
	}
	return nil
}

// LinearThreshold adds one full base per tag: base * (1 + tags).
func LinearThreshold() ThresholdFunc {
	return func(base decimal.Decimal, tagsApplied int) decimal.Decimal {
		if tagsApplied < 0 {
			tagsApplied = 0
		}
		return base.Mul(decimal.NewFromInt(int64(tagsApplied) + 1))
	}
}

// GeometricCost charges baseCost * multiplier^tags, saturating at MaxInt64.
func GeometricCost(baseCost, multiplier int64) CostFunc {
	return func(tagsApplied int) int64 {
		if tagsApplied < 0 {
			tagsApplied = 0
		}
		cost := baseCost
		for i := 0; i < tagsApplied; i++ {
			if cost > math.MaxInt64/multiplier {
				return math.MaxInt64
			}
			cost *= multiplier
		}
		return cost
	}
}

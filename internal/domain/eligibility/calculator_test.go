package eligibility

import (
	"math"
	"testing"

	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/shopspring/decimal"
)

func hitterPolicy(base int64) Policy {
	p := DefaultPolicy()
	p.HitterBase = decimal.NewFromInt(base)
	return p
}

func TestEvaluate_HitterBoundary(t *testing.T) {
	policy := hitterPolicy(100)

	tests := []struct {
		name     string
		atBats   int64
		eligible bool
	}{
		{name: "below threshold", atBats: 99, eligible: true},
		{name: "at threshold", atBats: 100, eligible: false},
		{name: "above threshold", atBats: 180, eligible: false},
		{name: "negative counts as zero", atBats: -7, eligible: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := policy.Evaluate(Input{Position: prospect.PositionShortstop, AtBats: tc.atBats})
			if v.Eligible != tc.eligible {
				t.Fatalf("expected eligible=%v, got %v (stat=%s threshold=%s)", tc.eligible, v.Eligible, v.Stat, v.Threshold)
			}
			if v.StatKind != StatAtBats {
				t.Fatalf("expected at_bats stat, got %s", v.StatKind)
			}
			if v.Stat.IsNegative() {
				t.Fatalf("stat must never be negative, got %s", v.Stat)
			}
		})
	}
}

func TestEvaluate_PitcherUsesInningsPitched(t *testing.T) {
	policy := DefaultPolicy()

	v := policy.Evaluate(Input{
		Position:       prospect.PositionPitcher,
		AtBats:         500,
		InningsPitched: decimal.RequireFromString("49.2"),
	})
	if v.StatKind != StatInningsPitched {
		t.Fatalf("expected innings_pitched stat, got %s", v.StatKind)
	}
	if !v.Eligible {
		t.Fatalf("expected pitcher under 50 IP to be eligible")
	}
	if !v.Remaining.Equal(decimal.RequireFromString("0.8")) {
		t.Fatalf("unexpected remaining: %s", v.Remaining)
	}

	v = policy.Evaluate(Input{Position: prospect.PositionPitcher, InningsPitched: decimal.NewFromInt(50)})
	if v.Eligible {
		t.Fatalf("expected pitcher at 50 IP to be ineligible")
	}
	if !v.Remaining.IsZero() {
		t.Fatalf("expected zero remaining, got %s", v.Remaining)
	}
}

func TestEvaluate_TagRaisesThresholdAndCost(t *testing.T) {
	policy := hitterPolicy(100)

	before := policy.Evaluate(Input{Position: prospect.PositionCatcher, AtBats: 100})
	after := policy.Evaluate(Input{Position: prospect.PositionCatcher, AtBats: 100, TagsApplied: 1})

	if before.Eligible {
		t.Fatalf("expected untagged prospect at threshold to be ineligible")
	}
	if !after.Threshold.GreaterThan(before.Threshold) {
		t.Fatalf("expected threshold to grow: %s -> %s", before.Threshold, after.Threshold)
	}
	if !after.Eligible {
		t.Fatalf("expected tagged prospect to be eligible again")
	}
	if after.NextTagCost <= before.NextTagCost {
		t.Fatalf("expected second tag to cost more: %d -> %d", before.NextTagCost, after.NextTagCost)
	}
}

func TestDefaultPolicy_Schedule(t *testing.T) {
	policy := DefaultPolicy()

	wantCosts := []int64{5, 10, 20, 40}
	for tags, want := range wantCosts {
		if got := policy.NextTagCost(tags); got != want {
			t.Fatalf("tags=%d: expected cost %d, got %d", tags, want, got)
		}
	}

	v := policy.Evaluate(Input{Position: prospect.PositionOutfield, TagsApplied: 2})
	if !v.Threshold.Equal(decimal.NewFromInt(420)) {
		t.Fatalf("expected hitter threshold 420 after two tags, got %s", v.Threshold)
	}
}

func TestGeometricCost_Saturates(t *testing.T) {
	cost := GeometricCost(5, 2)
	if got := cost(200); got != math.MaxInt64 {
		t.Fatalf("expected saturation at MaxInt64, got %d", got)
	}
	if got := cost(-3); got != 5 {
		t.Fatalf("expected negative tags treated as zero, got %d", got)
	}
}

func TestPolicy_Validate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy should be valid: %v", err)
	}

	p := DefaultPolicy()
	p.PitcherBase = decimal.Zero
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for zero pitcher base")
	}
}

package eligibility

import (
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/shopspring/decimal"
)

type StatKind string

const (
	StatAtBats         StatKind = "at_bats"
	StatInningsPitched StatKind = "innings_pitched"
)

// Input is the subset of a prospect the calculator reads.
type Input struct {
	Position       prospect.Position
	AtBats         int64
	InningsPitched decimal.Decimal
	TagsApplied    int
}

// Verdict is the derived eligibility of a prospect.
type Verdict struct {
	Eligible    bool
	StatKind    StatKind
	Stat        decimal.Decimal
	Threshold   decimal.Decimal
	Remaining   decimal.Decimal
	TagsApplied int
	NextTagCost int64
}

// Evaluate computes eligibility. Negative stats count as zero.
func (p Policy) Evaluate(in Input) Verdict {
	tags := in.TagsApplied
	if tags < 0 {
		tags = 0
	}

	kind, stat, base := StatAtBats, decimal.NewFromInt(in.AtBats), p.HitterBase
	if in.Position.IsPitcher() {
		kind, stat, base = StatInningsPitched, in.InningsPitched, p.PitcherBase
	}
	if stat.IsNegative() {
		stat = decimal.Zero
	}

	threshold := p.Threshold(base, tags)
	remaining := threshold.Sub(stat)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return Verdict{
		Eligible:    stat.LessThan(threshold),
		StatKind:    kind,
		Stat:        stat,
		Threshold:   threshold,
		Remaining:   remaining,
		TagsApplied: tags,
		NextTagCost: p.NextTagCost(tags),
	}
}

// EvaluateProspect evaluates a stored prospect.
func (p Policy) EvaluateProspect(item prospect.Prospect) Verdict {
	return p.Evaluate(Input{
		Position:       item.Position,
		AtBats:         item.Stats.AtBats,
		InningsPitched: item.Stats.InningsPitched,
		TagsApplied:    item.TagsApplied,
	})
}

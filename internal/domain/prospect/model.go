package prospect

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrProspectNotFound = errors.New("prospect not found")
	ErrAlreadyOwned     = errors.New("prospect already has an owner")
	ErrNotOwner         = errors.New("team does not own prospect")
)

// Position is a baseball roster position.
type Position string

const (
	PositionPitcher    Position = "P"
	PositionCatcher    Position = "C"
	PositionFirstBase  Position = "1B"
	PositionSecondBase Position = "2B"
	PositionThirdBase  Position = "3B"
	PositionShortstop  Position = "SS"
	PositionOutfield   Position = "OF"
	PositionUtility    Position = "UTIL"
)

var AllPositions = map[Position]struct{}{
	PositionPitcher:    {},
	PositionCatcher:    {},
	PositionFirstBase:  {},
	PositionSecondBase: {},
	PositionThirdBase:  {},
	PositionShortstop:  {},
	PositionOutfield:   {},
	PositionUtility:    {},
}

// IsPitcher reports whether eligibility is measured in innings pitched.
func (p Position) IsPitcher() bool {
	return p == PositionPitcher
}

// Level is the minor/major league level a prospect plays at.
type Level string

const (
	LevelRookie  Level = "ROK"
	LevelA       Level = "A"
	LevelHighA   Level = "A+"
	LevelDoubleA Level = "AA"
	LevelTripleA Level = "AAA"
	LevelMajors  Level = "MLB"
)

var AllLevels = map[Level]struct{}{
	LevelRookie:  {},
	LevelA:       {},
	LevelHighA:   {},
	LevelDoubleA: {},
	LevelTripleA: {},
	LevelMajors:  {},
}

// Stats are the raw counters written by stat ingestion.
type Stats struct {
	AtBats         int64
	InningsPitched decimal.Decimal
}

// Prospect is the asset teams bid on.
type Prospect struct {
	ID              string
	Name            string
	Position        Position
	Organization    string
	Level           Level
	ETA             int
	DateOfBirth     *time.Time
	Stats           Stats
	TagsApplied     int
	OwnerTeamID     string
	CreatedByTeamID string
	AcquiredAt      *time.Time
	LastTaggedAt    *time.Time
	LastTaggedBy    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (p Prospect) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("prospect id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("prospect name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return errors.Newf("invalid prospect position: %s", p.Position)
	}
	if p.Level != "" {
		if _, ok := AllLevels[p.Level]; !ok {
			return errors.Newf("invalid prospect level: %s", p.Level)
		}
	}
	if p.TagsApplied < 0 {
		return errors.New("prospect tags must not be negative")
	}
	return nil
}

// Owned reports whether a team holds the prospect.
func (p Prospect) Owned() bool {
	return p.OwnerTeamID != ""
}

// Age returns years since DateOfBirth rounded to one decimal, or false when unknown.
func (p Prospect) Age(now time.Time) (decimal.Decimal, bool) {
	if p.DateOfBirth == nil || p.DateOfBirth.After(now) {
		return decimal.Zero, false
	}
	days := decimal.NewFromFloat(now.Sub(*p.DateOfBirth).Hours() / 24)
	return days.Div(decimal.NewFromFloat(365.25)).Round(1), true
}

// Clone returns a copy that shares no pointers with p.
func (p Prospect) Clone() Prospect {
	out := p
	out.DateOfBirth = cloneTime(p.DateOfBirth)
	out.AcquiredAt = cloneTime(p.AcquiredAt)
	out.LastTaggedAt = cloneTime(p.LastTaggedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

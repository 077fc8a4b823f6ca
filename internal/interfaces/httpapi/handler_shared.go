package httpapi

import (
	"time"

	"github.com/riskibarqy/prospect-auction/internal/domain/eligibility"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/riskibarqy/prospect-auction/internal/usecase"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type teamDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PomBalance int64     `json:"pom_balance"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func teamToDTO(item team.Team) teamDTO {
	return teamDTO{
		ID:         item.ID,
		Name:       item.Name,
		PomBalance: item.PomBalance,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

type eligibilityDTO struct {
	Eligible    bool            `json:"eligible"`
	StatKind    string          `json:"stat_kind"`
	Stat        decimal.Decimal `json:"stat"`
	Threshold   decimal.Decimal `json:"threshold"`
	Remaining   decimal.Decimal `json:"remaining"`
	TagsApplied int             `json:"tags_applied"`
	NextTagCost int64           `json:"next_tag_cost"`
}

func verdictToDTO(v eligibility.Verdict) eligibilityDTO {
	return eligibilityDTO{
		Eligible:    v.Eligible,
		StatKind:    string(v.StatKind),
		Stat:        v.Stat,
		Threshold:   v.Threshold,
		Remaining:   v.Remaining,
		TagsApplied: v.TagsApplied,
		NextTagCost: v.NextTagCost,
	}
}

type prospectDTO struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Position        string           `json:"position"`
	Organization    string           `json:"organization,omitempty"`
	Level           string           `json:"level,omitempty"`
	ETA             int              `json:"eta,omitempty"`
	DateOfBirth     string           `json:"date_of_birth,omitempty"`
	Age             *decimal.Decimal `json:"age"`
	AtBats          int64            `json:"at_bats"`
	InningsPitched  decimal.Decimal  `json:"innings_pitched"`
	TagsApplied     int              `json:"tags_applied"`
	OwnerTeamID     string           `json:"owner_team_id"`
	CreatedByTeamID string           `json:"created_by_team_id,omitempty"`
	AcquiredAt      *time.Time       `json:"acquired_at,omitempty"`
	LastTaggedAt    *time.Time       `json:"last_tagged_at,omitempty"`
	LastTaggedBy    string           `json:"last_tagged_by,omitempty"`
	Eligibility     eligibilityDTO   `json:"eligibility"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func prospectViewToDTO(view usecase.ProspectView) prospectDTO {
	p := view.Prospect
	out := prospectDTO{
		ID:              p.ID,
		Name:            p.Name,
		Position:        string(p.Position),
		Organization:    p.Organization,
		Level:           string(p.Level),
		ETA:             p.ETA,
		AtBats:          p.Stats.AtBats,
		InningsPitched:  p.Stats.InningsPitched,
		TagsApplied:     p.TagsApplied,
		OwnerTeamID:     p.OwnerTeamID,
		CreatedByTeamID: p.CreatedByTeamID,
		AcquiredAt:      p.AcquiredAt,
		LastTaggedAt:    p.LastTaggedAt,
		LastTaggedBy:    p.LastTaggedBy,
		Eligibility:     verdictToDTO(view.Verdict),
		UpdatedAt:       p.UpdatedAt,
	}
	if p.DateOfBirth != nil {
		out.DateOfBirth = p.DateOfBirth.Format(dateLayout)
	}
	if view.HasAge {
		age := view.Age
		out.Age = &age
	}
	return out
}

func prospectViewsToDTO(items []usecase.ProspectView) []prospectDTO {
	out := make([]prospectDTO, 0, len(items))
	for _, item := range items {
		out = append(out, prospectViewToDTO(item))
	}
	return out
}

type tagResultDTO struct {
	Prospect     prospectDTO     `json:"prospect"`
	NewThreshold decimal.Decimal `json:"new_threshold"`
	TagsApplied  int             `json:"tags_applied"`
	CostCharged  int64           `json:"cost_charged"`
	NewBalance   int64           `json:"new_balance"`
}

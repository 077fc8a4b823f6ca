package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/eligibility"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// ProspectView is a prospect with its derived eligibility.
type ProspectView struct {
	Prospect prospect.Prospect
	Verdict  eligibility.Verdict
	Age      decimal.Decimal
	HasAge   bool
}

type TagResult struct {
	Prospect    prospect.Prospect
	Verdict     eligibility.Verdict
	CostCharged int64
	NewBalance  int64
}

type ProspectService struct {
	prospects prospect.Repository
	ledger    team.Ledger
	policy    eligibility.Policy
	teams     team.Repository
	recorder  SnapshotRecorder
	logger    *logging.Logger
	now       func() time.Time
}

func NewProspectService(
	prospects prospect.Repository,
	teams team.Repository,
	policy eligibility.Policy,
	recorder SnapshotRecorder,
	logger *logging.Logger,
) *ProspectService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ProspectService{
		prospects: prospects,
		ledger:    teams,
		teams:     teams,
		policy:    policy,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ProspectService) Policy() eligibility.Policy {
	return s.policy
}

func (s *ProspectService) Get(ctx context.Context, prospectID string) (ProspectView, error) {
	prospectID = strings.TrimSpace(prospectID)
	if prospectID == "" {
		return ProspectView{}, errors.Wrap(ErrInvalidInput, "prospect id is required")
	}

	item, ok, err := s.prospects.GetByID(ctx, prospectID)
	if err != nil {
		return ProspectView{}, errors.Wrap(err, "get prospect")
	}
	if !ok {
		return ProspectView{}, errors.Wrapf(prospect.ErrProspectNotFound, "prospect %s", prospectID)
	}
	return s.view(item), nil
}

func (s *ProspectService) List(ctx context.Context, filter prospect.ListFilter) ([]ProspectView, error) {
	items, err := s.prospects.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list prospects")
	}

	out := make([]ProspectView, 0, len(items))
	for _, item := range items {
		out = append(out, s.view(item))
	}
	return out, nil
}

// Tag raises the prospect's eligibility threshold. The owning team pays the
// next tag cost; the charge and the tag count change together.
func (s *ProspectService) Tag(ctx context.Context, teamID, prospectID string) (TagResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProspectService.Tag",
		attribute.String("prospect.id", prospectID),
		attribute.String("team.id", teamID),
	)
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	prospectID = strings.TrimSpace(prospectID)
	if teamID == "" || prospectID == "" {
		return TagResult{}, errors.Wrap(ErrInvalidInput, "team id and prospect id are required")
	}

	var newBalance int64
	item, cost, err := s.prospects.ApplyTag(ctx, prospectID, teamID, s.now(), func(tagsApplied int) (int64, error) {
		cost := s.policy.NextTagCost(tagsApplied)
		balance, err := s.ledger.Debit(ctx, teamID, cost)
		if err != nil {
			return 0, errors.Wrapf(err, "charge tag %d on prospect %s", tagsApplied+1, prospectID)
		}
		newBalance = balance
		return cost, nil
	})
	if err != nil {
		return TagResult{}, err
	}

	result := TagResult{
		Prospect:    item,
		Verdict:     s.policy.EvaluateProspect(item),
		CostCharged: cost,
		NewBalance:  newBalance,
	}
	s.recordProspect(ctx, item)
	s.recordTeam(ctx, teamID)

	s.logger.InfoContext(ctx, "prospect tagged",
		"prospect_id", item.ID,
		"team_id", teamID,
		"tags_applied", item.TagsApplied,
		"cost", cost,
		"threshold", result.Verdict.Threshold.String(),
	)
	return result, nil
}

// Release returns an owned prospect to the unowned pool.
func (s *ProspectService) Release(ctx context.Context, teamID, prospectID string) (ProspectView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProspectService.Release")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	prospectID = strings.TrimSpace(prospectID)
	if teamID == "" || prospectID == "" {
		return ProspectView{}, errors.Wrap(ErrInvalidInput, "team id and prospect id are required")
	}

	item, err := s.prospects.Release(ctx, prospectID, teamID, s.now())
	if err != nil {
		return ProspectView{}, err
	}

	s.recordProspect(ctx, item)
	s.logger.InfoContext(ctx, "prospect released", "prospect_id", item.ID, "team_id", teamID)
	return s.view(item), nil
}

// UpdateStats overwrites the accumulated stats reported by stat ingestion.
func (s *ProspectService) UpdateStats(ctx context.Context, prospectID string, stats prospect.Stats) (ProspectView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProspectService.UpdateStats")
	defer span.End()

	prospectID = strings.TrimSpace(prospectID)
	if prospectID == "" {
		return ProspectView{}, errors.Wrap(ErrInvalidInput, "prospect id is required")
	}
	if stats.AtBats < 0 || stats.InningsPitched.IsNegative() {
		return ProspectView{}, errors.Wrap(ErrInvalidInput, "stats must not be negative")
	}

	item, err := s.prospects.UpdateStats(ctx, prospectID, stats, s.now())
	if err != nil {
		return ProspectView{}, err
	}

	s.recordProspect(ctx, item)
	s.logger.InfoContext(ctx, "prospect stats updated",
		"prospect_id", item.ID,
		"at_bats", item.Stats.AtBats,
		"innings_pitched", item.Stats.InningsPitched.String(),
	)
	return s.view(item), nil
}

func (s *ProspectService) view(item prospect.Prospect) ProspectView {
	age, ok := item.Age(s.now())
	return ProspectView{
		Prospect: item,
		Verdict:  s.policy.EvaluateProspect(item),
		Age:      age,
		HasAge:   ok,
	}
}

func (s *ProspectService) recordProspect(ctx context.Context, item prospect.Prospect) {
	if s.recorder != nil {
		s.recorder.RecordProspect(ctx, item)
	}
}

func (s *ProspectService) recordTeam(ctx context.Context, teamID string) {
	if s.recorder == nil {
		return
	}
	item, ok, err := s.teams.GetByID(ctx, teamID)
	if err != nil || !ok {
		return
	}
	s.recorder.RecordTeam(ctx, item)
}

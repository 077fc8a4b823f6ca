package usecase

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	idgen "github.com/riskibarqy/prospect-auction/internal/platform/id"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
)

type RegisterTeamInput struct {
	ID              string
	Name            string
	StartingBalance *int64
}

type TeamService struct {
	teams           team.Repository
	startingBalance int64
	recorder        SnapshotRecorder
	idGen           idgen.Generator
	logger          *logging.Logger
	now             func() time.Time
}

func NewTeamService(teams team.Repository, startingBalance int64, recorder SnapshotRecorder, idGen idgen.Generator, logger *logging.Logger) *TeamService {
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = idgen.NewUUIDGenerator()
	}
	if startingBalance < 0 {
		startingBalance = team.DefaultStartingBalance
	}

	return &TeamService{
		teams:           teams,
		startingBalance: startingBalance,
		recorder:        recorder,
		idGen:           idGen,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *TeamService) Register(ctx context.Context, input RegisterTeamInput) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Register")
	defer span.End()

	input.ID = strings.TrimSpace(input.ID)
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return team.Team{}, errors.Wrap(ErrInvalidInput, "team name is required")
	}

	balance := s.startingBalance
	if input.StartingBalance != nil {
		if *input.StartingBalance < 0 {
			return team.Team{}, errors.Wrap(ErrInvalidInput, "starting balance must not be negative")
		}
		balance = *input.StartingBalance
	}

	if input.ID == "" {
		id, err := s.idGen.NewID()
		if err != nil {
			return team.Team{}, errors.Wrap(err, "generate team id")
		}
		input.ID = id
	}

	now := s.now()
	item := team.Team{
		ID:         input.ID,
		Name:       input.Name,
		PomBalance: balance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := item.Validate(); err != nil {
		return team.Team{}, errors.Wrapf(ErrInvalidInput, "%v", err)
	}
	if err := s.teams.Register(ctx, item); err != nil {
		return team.Team{}, errors.Wrap(err, "register team")
	}

	s.record(ctx, item)
	s.logger.InfoContext(ctx, "team registered", "team_id", item.ID, "pom_balance", item.PomBalance)
	return item, nil
}

func (s *TeamService) Get(ctx context.Context, teamID string) (team.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return team.Team{}, errors.Wrap(ErrInvalidInput, "team id is required")
	}

	item, ok, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, errors.Wrap(err, "get team")
	}
	if !ok {
		return team.Team{}, errors.Wrapf(team.ErrTeamNotFound, "team %s", teamID)
	}
	return item, nil
}

func (s *TeamService) List(ctx context.Context) ([]team.Team, error) {
	items, err := s.teams.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list teams")
	}
	return items, nil
}

// AdjustBalance credits a positive delta and debits a negative one. A debit
// that would take the balance below zero fails with ErrInsufficientFunds.
func (s *TeamService) AdjustBalance(ctx context.Context, teamID string, delta int64) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.AdjustBalance")
	defer span.End()

	if delta == 0 || delta == math.MinInt64 {
		return team.Team{}, errors.Wrapf(ErrInvalidInput, "invalid delta %d", delta)
	}
	item, err := s.Get(ctx, teamID)
	if err != nil {
		return team.Team{}, err
	}

	var balance int64
	if delta > 0 {
		balance, err = s.teams.Credit(ctx, item.ID, delta)
	} else {
		balance, err = s.teams.Debit(ctx, item.ID, -delta)
	}
	if err != nil {
		return team.Team{}, err
	}

	item.PomBalance = balance
	item.UpdatedAt = s.now()
	s.record(ctx, item)
	s.logger.InfoContext(ctx, "team balance adjusted", "team_id", item.ID, "delta", delta, "pom_balance", balance)
	return item, nil
}

func (s *TeamService) record(ctx context.Context, item team.Team) {
	if s.recorder != nil {
		s.recorder.RecordTeam(ctx, item)
	}
}

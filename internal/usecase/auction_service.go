package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	idgen "github.com/riskibarqy/prospect-auction/internal/platform/id"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// NewProspectInput describes a prospect created together with its auction.
type NewProspectInput struct {
	Name           string
	Position       prospect.Position
	Organization   string
	Level          prospect.Level
	ETA            int
	DateOfBirth    *time.Time
	AtBats         int64
	InningsPitched decimal.Decimal
}

// NominateInput opens an auction for an existing unowned prospect (ProspectID)
// or for a new one (Prospect). Exactly one must be set.
type NominateInput struct {
	NominatorID string
	ProspectID  string
	Prospect    *NewProspectInput
	StartingBid int64
}

type AuctionService struct {
	registry  *AuctionRegistry
	teams     team.Repository
	prospects prospect.Repository
	policy    auction.Policy
	recorder  SnapshotRecorder
	idGen     idgen.Generator
	logger    *logging.Logger
	now       func() time.Time
}

func NewAuctionService(
	registry *AuctionRegistry,
	teams team.Repository,
	prospects prospect.Repository,
	policy auction.Policy,
	recorder SnapshotRecorder,
	idGen idgen.Generator,
	logger *logging.Logger,
) *AuctionService {
	if logger == nil {
		logger = logging.Default()
	}
	if idGen == nil {
		idGen = idgen.NewUUIDGenerator()
	}

	return &AuctionService{
		registry:  registry,
		teams:     teams,
		prospects: prospects,
		policy:    policy,
		recorder:  recorder,
		idGen:     idGen,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *AuctionService) Policy() auction.Policy {
	return s.policy
}

func (s *AuctionService) Nominate(ctx context.Context, input NominateInput) (auction.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.Nominate")
	defer span.End()

	input.NominatorID = strings.TrimSpace(input.NominatorID)
	input.ProspectID = strings.TrimSpace(input.ProspectID)
	if input.NominatorID == "" {
		return auction.Snapshot{}, errors.Wrap(ErrInvalidInput, "nominator id is required")
	}
	if (input.ProspectID == "") == (input.Prospect == nil) {
		return auction.Snapshot{}, errors.Wrap(ErrInvalidInput, "exactly one of prospect id or prospect details is required")
	}
	if _, ok, err := s.teams.GetByID(ctx, input.NominatorID); err != nil {
		return auction.Snapshot{}, errors.Wrap(err, "get nominator")
	} else if !ok {
		return auction.Snapshot{}, errors.Wrapf(team.ErrTeamNotFound, "team %s", input.NominatorID)
	}

	auctionID, err := s.idGen.NewID()
	if err != nil {
		return auction.Snapshot{}, errors.Wrap(err, "generate auction id")
	}

	var created *prospect.Prospect
	var ref auction.ProspectRef
	if input.ProspectID != "" {
		existing, ok, err := s.prospects.GetByID(ctx, input.ProspectID)
		if err != nil {
			return auction.Snapshot{}, errors.Wrap(err, "get prospect")
		}
		if !ok {
			return auction.Snapshot{}, errors.Wrapf(prospect.ErrProspectNotFound, "prospect %s", input.ProspectID)
		}
		if existing.Owned() {
			return auction.Snapshot{}, errors.Wrapf(ErrInvalidInput, "prospect %s is owned by %s", existing.ID, existing.OwnerTeamID)
		}
		ref = auction.ProspectRef{ID: existing.ID, Name: existing.Name, Position: existing.Position}
	} else {
		item, err := s.buildProspect(input.NominatorID, *input.Prospect)
		if err != nil {
			return auction.Snapshot{}, err
		}
		created = &item
		ref = auction.ProspectRef{ID: item.ID, Name: item.Name, Position: item.Position}
	}

	snap, err := s.registry.Open(ctx, auction.NewParams{
		ID:          auctionID,
		Prospect:    ref,
		NominatorID: input.NominatorID,
		StartingBid: input.StartingBid,
	}, s.policy)
	if err != nil {
		return auction.Snapshot{}, err
	}

	if created != nil {
		if err := s.prospects.Create(ctx, *created); err != nil {
			if _, cancelErr := s.registry.Cancel(ctx, auctionID, auction.CancelReasonSettlementFailed); cancelErr != nil {
				s.logger.ErrorContext(ctx, "cancel auction after prospect create failure", "auction_id", auctionID, "error", cancelErr)
			}
			return auction.Snapshot{}, errors.Wrap(err, "create prospect")
		}
	}

	if s.recorder != nil {
		if created != nil {
			s.recorder.RecordProspect(ctx, *created)
		}
		s.recorder.RecordAuction(ctx, snap)
	}

	span.SetAttributes(attribute.String("auction.id", snap.ID))
	s.logger.InfoContext(ctx, "auction nominated",
		"auction_id", snap.ID,
		"prospect_id", ref.ID,
		"nominator_id", input.NominatorID,
		"starting_bid", input.StartingBid,
	)
	return snap, nil
}

func (s *AuctionService) Bid(ctx context.Context, auctionID, teamID string, amount int64) (auction.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.Bid",
		attribute.String("auction.id", auctionID),
		attribute.Int64("bid.amount", amount),
	)
	defer span.End()

	auctionID = strings.TrimSpace(auctionID)
	teamID = strings.TrimSpace(teamID)
	if auctionID == "" || teamID == "" {
		return auction.Snapshot{}, errors.Wrap(ErrInvalidInput, "auction id and team id are required")
	}

	snap, err := s.registry.Bid(ctx, auctionID, teamID, amount)
	if err != nil {
		return auction.Snapshot{}, err
	}

	s.logger.InfoContext(ctx, "bid placed", "auction_id", auctionID, "team_id", teamID, "amount", amount)
	return snap, nil
}

func (s *AuctionService) Get(ctx context.Context, auctionID string) (auction.Snapshot, error) {
	return s.registry.Get(ctx, strings.TrimSpace(auctionID))
}

func (s *AuctionService) ListActive(_ context.Context) []auction.Snapshot {
	return s.registry.ListActive()
}

func (s *AuctionService) ListCompleted(_ context.Context) []auction.Snapshot {
	return s.registry.ListCompleted()
}

func (s *AuctionService) ListByStatus(ctx context.Context, status auction.Status) ([]auction.Snapshot, error) {
	switch status {
	case auction.StatusActive:
		return s.ListActive(ctx), nil
	case auction.StatusCompleted:
		return s.ListCompleted(ctx), nil
	case auction.StatusCancelled:
		return s.registry.List(byStatus(auction.StatusCancelled)), nil
	case "":
		return s.registry.List(nil), nil
	default:
		return nil, errors.Wrapf(ErrInvalidInput, "unknown auction status %q", status)
	}
}

// ListNominatedBy returns every auction the team nominated.
func (s *AuctionService) ListNominatedBy(_ context.Context, teamID string) []auction.Snapshot {
	return s.registry.List(func(snap auction.Snapshot) bool {
		return snap.NominatorID == teamID
	})
}

// ListLeading returns active auctions the team currently leads.
func (s *AuctionService) ListLeading(_ context.Context, teamID string) []auction.Snapshot {
	return s.registry.List(func(snap auction.Snapshot) bool {
		return snap.Status == auction.StatusActive && snap.CurrentBidderID == teamID
	})
}

// Close settles an auction now, whether or not it has a deadline.
func (s *AuctionService) Close(ctx context.Context, auctionID string) (auction.Snapshot, auction.Outcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.Close", attribute.String("auction.id", auctionID))
	defer span.End()

	return s.registry.Close(ctx, strings.TrimSpace(auctionID))
}

func (s *AuctionService) Cancel(ctx context.Context, auctionID string) (auction.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuctionService.Cancel", attribute.String("auction.id", auctionID))
	defer span.End()

	snap, err := s.registry.Cancel(ctx, strings.TrimSpace(auctionID), auction.CancelReasonAdmin)
	if err != nil {
		return auction.Snapshot{}, err
	}
	s.logger.InfoContext(ctx, "auction cancelled by admin", "auction_id", snap.ID)
	return snap, nil
}

func (s *AuctionService) buildProspect(nominatorID string, in NewProspectInput) (prospect.Prospect, error) {
	prospectID, err := s.idGen.NewID()
	if err != nil {
		return prospect.Prospect{}, errors.Wrap(err, "generate prospect id")
	}

	now := s.now()
	item := prospect.Prospect{
		ID:              prospectID,
		Name:            strings.TrimSpace(in.Name),
		Position:        prospect.Position(strings.ToUpper(strings.TrimSpace(string(in.Position)))),
		Organization:    strings.TrimSpace(in.Organization),
		Level:           prospect.Level(strings.ToUpper(strings.TrimSpace(string(in.Level)))),
		ETA:             in.ETA,
		DateOfBirth:     in.DateOfBirth,
		Stats:           prospect.Stats{AtBats: in.AtBats, InningsPitched: in.InningsPitched},
		CreatedByTeamID: nominatorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := item.Validate(); err != nil {
		return prospect.Prospect{}, errors.Wrapf(ErrInvalidInput, "%v", err)
	}
	return item, nil
}

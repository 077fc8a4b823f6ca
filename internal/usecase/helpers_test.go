package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/riskibarqy/prospect-auction/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
)

var engineStart = time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEngine struct {
	clock     *testClock
	teams     *memory.TeamRepository
	prospects *memory.ProspectRepository
	events    *EventBroadcaster
	registry  *AuctionRegistry
	logger    *logging.Logger
}

func newTestEngine(t *testing.T, balances map[string]int64, prospectIDs ...string) *testEngine {
	t.Helper()

	clock := &testClock{now: engineStart}
	logger := logging.NewNop()

	teams := make([]team.Team, 0, len(balances))
	for id, balance := range balances {
		teams = append(teams, team.Team{ID: id, Name: "Team " + id, PomBalance: balance, CreatedAt: engineStart})
	}

	items := make([]prospect.Prospect, 0, len(prospectIDs))
	for _, id := range prospectIDs {
		items = append(items, testProspect(id))
	}

	e := &testEngine{
		clock:     clock,
		teams:     memory.NewTeamRepository(teams),
		prospects: memory.NewProspectRepository(items),
		events:    NewEventBroadcaster(16, logger),
		logger:    logger,
	}
	e.registry = NewAuctionRegistry(e.teams, e.prospects, e.events, logger)
	e.registry.now = clock.Now
	return e
}

func (e *testEngine) open(t *testing.T, auctionID, prospectID, nominatorID string, startingBid int64, policy auction.Policy) auction.Snapshot {
	t.Helper()

	snap, err := e.registry.Open(t.Context(), auction.NewParams{
		ID:          auctionID,
		Prospect:    auction.ProspectRef{ID: prospectID, Name: "Prospect " + prospectID, Position: prospect.PositionShortstop},
		NominatorID: nominatorID,
		StartingBid: startingBid,
	}, policy)
	if err != nil {
		t.Fatalf("open auction %s: %v", auctionID, err)
	}
	return snap
}

func (e *testEngine) balance(t *testing.T, teamID string) int64 {
	t.Helper()

	balance, err := e.teams.Balance(t.Context(), teamID)
	if err != nil {
		t.Fatalf("balance of %s: %v", teamID, err)
	}
	return balance
}

type recordingSnapshots struct {
	mu        sync.Mutex
	auctions  []auction.Snapshot
	teams     []team.Team
	prospects []prospect.Prospect
}

func (r *recordingSnapshots) RecordAuction(_ context.Context, snap auction.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions = append(r.auctions, snap)
}

func (r *recordingSnapshots) RecordTeam(_ context.Context, item team.Team) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams = append(r.teams, item)
}

func (r *recordingSnapshots) RecordProspect(_ context.Context, item prospect.Prospect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prospects = append(r.prospects, item)
}

func (r *recordingSnapshots) auctionIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.auctions))
	for _, snap := range r.auctions {
		out = append(out, snap.ID)
	}
	return out
}

func testProspect(id string) prospect.Prospect {
	return prospect.Prospect{
		ID:           id,
		Name:         "Prospect " + id,
		Position:     prospect.PositionShortstop,
		Organization: "SEA",
		Level:        prospect.LevelDoubleA,
		CreatedAt:    engineStart,
		UpdatedAt:    engineStart,
	}
}

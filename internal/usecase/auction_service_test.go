package usecase

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	idgen "github.com/riskibarqy/prospect-auction/internal/platform/id"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuctionService(e *testEngine, recorder SnapshotRecorder) *AuctionService {
	service := NewAuctionService(e.registry, e.teams, e.prospects, auction.DefaultPolicy(), recorder, idgen.NewSequenceGenerator("id"), e.logger)
	service.now = e.clock.Now
	return service
}

func TestAuctionService_NominateNewProspect(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 50, "team-b": 30})
	service := newTestAuctionService(e, nil)

	snap, err := service.Nominate(t.Context(), NominateInput{
		NominatorID: " team-a ",
		Prospect: &NewProspectInput{
			Name:           "Jackson Holliday",
			Position:       "ss",
			Organization:   "BAL",
			Level:          "aaa",
			AtBats:         42,
			InningsPitched: decimal.Zero,
		},
		StartingBid: 5,
	})
	if err != nil {
		t.Fatalf("nominate: %v", err)
	}
	if snap.ID != "id-1" || snap.Prospect.ID != "id-2" {
		t.Fatalf("unexpected ids: auction=%s prospect=%s", snap.ID, snap.Prospect.ID)
	}
	if snap.CurrentBidderID != "team-a" || snap.CurrentBid != 5 {
		t.Fatalf("unexpected leader: %s/%d", snap.CurrentBidderID, snap.CurrentBid)
	}

	created, ok, err := e.prospects.GetByID(t.Context(), "id-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, prospect.PositionShortstop, created.Position)
	assert.Equal(t, prospect.LevelTripleA, created.Level)
	assert.Equal(t, "team-a", created.CreatedByTeamID)

	_, err = service.Bid(t.Context(), snap.ID, "team-b", 10)
	require.NoError(t, err)
	_, err = service.Bid(t.Context(), snap.ID, "team-a", 8)
	assert.True(t, errors.Is(err, auction.ErrInvalidBid))

	assert.Len(t, service.ListNominatedBy(t.Context(), "team-a"), 1)
	assert.Len(t, service.ListLeading(t.Context(), "team-b"), 1)
	assert.Empty(t, service.ListLeading(t.Context(), "team-a"))
}

func TestAuctionService_NominateValidation(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 3, "team-b": 50}, "prospect-1")
	service := newTestAuctionService(e, nil)

	require.NoError(t, e.prospects.AssignOwner(t.Context(), "prospect-1", "team-b", engineStart))

	tests := []struct {
		name  string
		input NominateInput
		want  error
	}{
		{
			name:  "missing nominator",
			input: NominateInput{ProspectID: "prospect-1", StartingBid: 5},
			want:  ErrInvalidInput,
		},
		{
			name:  "both prospect id and details",
			input: NominateInput{NominatorID: "team-b", ProspectID: "prospect-1", Prospect: &NewProspectInput{}, StartingBid: 5},
			want:  ErrInvalidInput,
		},
		{
			name:  "unknown nominator",
			input: NominateInput{NominatorID: "team-z", ProspectID: "prospect-1", StartingBid: 5},
			want:  team.ErrTeamNotFound,
		},
		{
			name:  "unknown prospect",
			input: NominateInput{NominatorID: "team-b", ProspectID: "prospect-9", StartingBid: 5},
			want:  prospect.ErrProspectNotFound,
		},
		{
			name:  "owned prospect",
			input: NominateInput{NominatorID: "team-b", ProspectID: "prospect-1", StartingBid: 5},
			want:  ErrInvalidInput,
		},
		{
			name:  "invalid position",
			input: NominateInput{NominatorID: "team-b", Prospect: &NewProspectInput{Name: "X", Position: "DH"}, StartingBid: 5},
			want:  ErrInvalidInput,
		},
		{
			name:  "below minimum",
			input: NominateInput{NominatorID: "team-b", Prospect: &NewProspectInput{Name: "X", Position: "C"}, StartingBid: 4},
			want:  auction.ErrInvalidBid,
		},
		{
			name:  "nominator cannot cover",
			input: NominateInput{NominatorID: "team-a", Prospect: &NewProspectInput{Name: "X", Position: "C"}, StartingBid: 5},
			want:  auction.ErrInsufficientFunds,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Nominate(t.Context(), tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	assert.Empty(t, service.ListActive(t.Context()))
}

func TestAuctionService_NominateExistingProspectAndAdminClose(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 50, "team-b": 50}, "prospect-1")
	recorder := &recordingSnapshots{}
	service := newTestAuctionService(e, recorder)

	snap, err := service.Nominate(t.Context(), NominateInput{NominatorID: "team-a", ProspectID: "prospect-1", StartingBid: 6})
	require.NoError(t, err)
	assert.Equal(t, "prospect-1", snap.Prospect.ID)
	assert.Equal(t, []string{snap.ID}, recorder.auctionIDs())
	assert.Empty(t, recorder.prospects)

	_, outcome, err := service.Close(t.Context(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "team-a", outcome.WinnerID)
	assert.Equal(t, int64(44), outcome.WinnerBalance)

	completed, err := service.ListByStatus(t.Context(), auction.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	_, err = service.ListByStatus(t.Context(), "pending")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAuctionService_AdminCancel(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 50}, "prospect-1")
	service := newTestAuctionService(e, nil)

	snap, err := service.Nominate(t.Context(), NominateInput{NominatorID: "team-a", ProspectID: "prospect-1", StartingBid: 5})
	require.NoError(t, err)

	cancelled, err := service.Cancel(t.Context(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusCancelled, cancelled.Status)
	assert.Equal(t, auction.CancelReasonAdmin, cancelled.CancelReason)

	items, err := service.ListByStatus(t.Context(), auction.StatusCancelled)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(50), e.balance(t, "team-a"))
}

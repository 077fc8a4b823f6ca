package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/riskibarqy/prospect-auction/internal/platform/resilience"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSnapshotStore struct {
	mock.Mock
}

func (m *mockSnapshotStore) SaveAuction(ctx context.Context, snap auction.Snapshot) error {
	return m.Called(ctx, snap).Error(0)
}

func (m *mockSnapshotStore) SaveTeam(ctx context.Context, item team.Team) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockSnapshotStore) SaveTeamBalance(ctx context.Context, teamID string, balance int64, at time.Time) error {
	return m.Called(ctx, teamID, balance, at).Error(0)
}

func (m *mockSnapshotStore) SaveProspect(ctx context.Context, item prospect.Prospect) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockSnapshotStore) SaveProspectOwner(ctx context.Context, prospectID, teamID string, at time.Time) error {
	return m.Called(ctx, prospectID, teamID, at).Error(0)
}

func runArchiver(t *testing.T, archiver *SnapshotArchiver, events *EventBroadcaster) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	sub := events.Subscribe(SubscriptionFilter{})
	done := make(chan error, 1)
	go func() { done <- archiver.Run(ctx, sub) }()

	return func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatalf("archiver did not stop")
		}
	}
}

func TestSnapshotArchiver_ArchivesCompletion(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 50, "team-b": 30}, "prospect-1")
	store := &mockSnapshotStore{}
	archiver := NewSnapshotArchiver(store, SnapshotArchiverConfig{}, logging.NewNop())

	done := make(chan struct{})
	store.On("SaveAuction", mock.Anything, mock.MatchedBy(func(s auction.Snapshot) bool {
		return s.Status == auction.StatusActive
	})).Return(nil).Once()
	store.On("SaveAuction", mock.Anything, mock.MatchedBy(func(s auction.Snapshot) bool {
		return s.Status == auction.StatusCompleted
	})).Return(nil).Once()
	store.On("SaveProspectOwner", mock.Anything, "prospect-1", "team-b", engineStart).Return(nil).Once()
	store.On("SaveTeamBalance", mock.Anything, "team-b", int64(20), engineStart).
		Return(nil).
		Once().
		Run(func(mock.Arguments) { close(done) })

	stop := runArchiver(t, archiver, e.events)
	e.open(t, "auction-1", "prospect-1", "team-a", 5, auction.DefaultPolicy())
	_, err := e.registry.Bid(t.Context(), "auction-1", "team-b", 10)
	require.NoError(t, err)
	_, _, err = e.registry.Close(t.Context(), "auction-1")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("completion was not archived")
	}
	stop()
	store.AssertExpectations(t)
}

func TestSnapshotArchiver_RecordsQueuedSnapshots(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 50})
	store := &mockSnapshotStore{}
	archiver := NewSnapshotArchiver(store, SnapshotArchiverConfig{}, logging.NewNop())

	saved := make(chan string, 3)
	store.On("SaveTeam", mock.Anything, mock.AnythingOfType("team.Team")).
		Return(nil).
		Run(func(mock.Arguments) { saved <- "team" })
	store.On("SaveProspect", mock.Anything, mock.AnythingOfType("prospect.Prospect")).
		Return(nil).
		Run(func(mock.Arguments) { saved <- "prospect" })
	store.On("SaveAuction", mock.Anything, mock.AnythingOfType("auction.Snapshot")).
		Return(nil).
		Run(func(mock.Arguments) { saved <- "auction" })

	stop := runArchiver(t, archiver, e.events)
	archiver.RecordTeam(t.Context(), team.Team{ID: "team-a"})
	archiver.RecordProspect(t.Context(), testProspect("prospect-1"))
	archiver.RecordAuction(t.Context(), auction.Snapshot{ID: "auction-1"})

	got := make([]string, 0, 3)
	for len(got) < 3 {
		select {
		case kind := <-saved:
			got = append(got, kind)
		case <-time.After(time.Second):
			t.Fatalf("only %v archived", got)
		}
	}
	stop()
	require.Equal(t, []string{"team", "prospect", "auction"}, got)
}

func TestSnapshotArchiver_OpensCircuitOnRepeatedFailure(t *testing.T) {
	store := &mockSnapshotStore{}
	archiver := NewSnapshotArchiver(store, SnapshotArchiverConfig{
		Breaker: resilience.CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour},
	}, logging.NewNop())

	store.On("SaveTeam", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Twice()

	for i := 0; i < 5; i++ {
		archiver.save(t.Context(), archiveJob{name: "team", save: func(ctx context.Context) error {
			return store.SaveTeam(ctx, team.Team{ID: "team-a"})
		}})
	}

	require.Equal(t, resilience.CircuitStateOpen, archiver.breaker.State())
	store.AssertNumberOfCalls(t, "SaveTeam", 2)
}

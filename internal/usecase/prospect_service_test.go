package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/eligibility"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProspectService(e *testEngine, recorder SnapshotRecorder) *ProspectService {
	service := NewProspectService(e.prospects, e.teams, eligibility.DefaultPolicy(), recorder, e.logger)
	service.now = e.clock.Now
	return service
}

func TestProspectService_TagChargesOwnerAndRaisesThreshold(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 20}, "prospect-1")
	require.NoError(t, e.prospects.AssignOwner(t.Context(), "prospect-1", "team-a", engineStart))
	recorder := &recordingSnapshots{}
	service := newTestProspectService(e, recorder)

	before, err := service.Get(t.Context(), "prospect-1")
	require.NoError(t, err)

	first, err := service.Tag(t.Context(), "team-a", "prospect-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), first.CostCharged)
	assert.Equal(t, int64(15), first.NewBalance)
	assert.Equal(t, 1, first.Prospect.TagsApplied)
	assert.True(t, first.Verdict.Threshold.GreaterThan(before.Verdict.Threshold))

	second, err := service.Tag(t.Context(), "team-a", "prospect-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), second.CostCharged)
	assert.Equal(t, int64(5), second.NewBalance)
	assert.Greater(t, second.CostCharged, first.CostCharged)
	assert.True(t, second.Verdict.Threshold.GreaterThan(first.Verdict.Threshold))

	_, err = service.Tag(t.Context(), "team-a", "prospect-1")
	require.True(t, errors.Is(err, team.ErrInsufficientFunds), "got %v", err)

	after, err := service.Get(t.Context(), "prospect-1")
	require.NoError(t, err)
	assert.Equal(t, 2, after.Prospect.TagsApplied)
	assert.Equal(t, int64(5), e.balance(t, "team-a"))

	assert.Len(t, recorder.prospects, 2)
	require.Len(t, recorder.teams, 2)
	assert.Equal(t, int64(5), recorder.teams[1].PomBalance)
}

func TestProspectService_TagRequiresOwner(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 50, "team-b": 50}, "prospect-1")
	service := newTestProspectService(e, nil)

	_, err := service.Tag(t.Context(), "team-b", "prospect-1")
	require.True(t, errors.Is(err, prospect.ErrNotOwner))

	require.NoError(t, e.prospects.AssignOwner(t.Context(), "prospect-1", "team-a", engineStart))
	_, err = service.Tag(t.Context(), "team-b", "prospect-1")
	require.True(t, errors.Is(err, prospect.ErrNotOwner))
	assert.Equal(t, int64(50), e.balance(t, "team-b"))

	_, err = service.Tag(t.Context(), "team-a", "missing")
	require.True(t, errors.Is(err, prospect.ErrProspectNotFound))
}

func TestProspectService_ConcurrentTagsArePricedInOrder(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 1000}, "prospect-1")
	require.NoError(t, e.prospects.AssignOwner(t.Context(), "prospect-1", "team-a", engineStart))
	service := newTestProspectService(e, nil)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		costs = make(map[int64]int)
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := service.Tag(t.Context(), "team-a", "prospect-1")
			if err != nil {
				t.Errorf("tag: %v", err)
				return
			}
			mu.Lock()
			costs[result.CostCharged]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, map[int64]int{5: 1, 10: 1, 20: 1, 40: 1, 80: 1}, costs)
	assert.Equal(t, int64(1000-155), e.balance(t, "team-a"))
}

func TestProspectService_EligibilityView(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 50}, "prospect-1")
	service := newTestProspectService(e, nil)

	dob := engineStart.AddDate(-21, 0, 0)
	_, err := e.prospects.UpdateStats(t.Context(), "prospect-1", prospect.Stats{AtBats: 139}, engineStart)
	require.NoError(t, err)

	view, err := service.Get(t.Context(), "prospect-1")
	require.NoError(t, err)
	assert.True(t, view.Verdict.Eligible)
	assert.Equal(t, eligibility.StatAtBats, view.Verdict.StatKind)
	assert.True(t, view.Verdict.Remaining.Equal(decimal.NewFromInt(1)))
	assert.False(t, view.HasAge)

	view, err = service.UpdateStats(t.Context(), "prospect-1", prospect.Stats{AtBats: 140})
	require.NoError(t, err)
	assert.False(t, view.Verdict.Eligible)

	_, err = service.UpdateStats(t.Context(), "prospect-1", prospect.Stats{AtBats: -1})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	require.NoError(t, e.prospects.Create(t.Context(), prospect.Prospect{
		ID:          "prospect-2",
		Name:        "Arm",
		Position:    prospect.PositionPitcher,
		DateOfBirth: &dob,
		Stats:       prospect.Stats{InningsPitched: decimal.RequireFromString("49.2")},
	}))
	view, err = service.Get(t.Context(), "prospect-2")
	require.NoError(t, err)
	assert.Equal(t, eligibility.StatInningsPitched, view.Verdict.StatKind)
	assert.True(t, view.Verdict.Eligible)
	assert.True(t, view.HasAge)
	assert.True(t, view.Age.Equal(decimal.NewFromInt(21)), "age %s", view.Age)

	unowned, err := service.List(t.Context(), prospect.ListFilter{UnownedOnly: true})
	require.NoError(t, err)
	assert.Len(t, unowned, 2)
}

func TestProspectService_Release(t *testing.T) {
	e := newTestEngine(t, map[string]int64{"team-a": 50, "team-b": 50}, "prospect-1")
	require.NoError(t, e.prospects.AssignOwner(t.Context(), "prospect-1", "team-a", engineStart))
	service := newTestProspectService(e, nil)
	e.clock.Advance(time.Hour)

	_, err := service.Release(t.Context(), "team-b", "prospect-1")
	require.True(t, errors.Is(err, prospect.ErrNotOwner))

	view, err := service.Release(t.Context(), "team-a", "prospect-1")
	require.NoError(t, err)
	assert.False(t, view.Prospect.Owned())
	assert.Equal(t, engineStart.Add(time.Hour), view.Prospect.UpdatedAt)
}

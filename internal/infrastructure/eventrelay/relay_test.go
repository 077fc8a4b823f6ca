package eventrelay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/interfaces/eventwire"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/riskibarqy/prospect-auction/internal/platform/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedFrame struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	frames []publishedFrame
	calls  int
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.err != nil {
		return p.err
	}
	p.frames = append(p.frames, publishedFrame{channel: channel, payload: payload})
	return nil
}

func (p *fakePublisher) snapshot() ([]publishedFrame, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedFrame(nil), p.frames...), p.calls
}

func testEvent(auctionID string, seq uint64) auction.Event {
	at := time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)
	return auction.Event{
		Type:       auction.EventBidPlaced,
		AuctionID:  auctionID,
		Sequence:   seq,
		OccurredAt: at,
		Snapshot: auction.Snapshot{
			ID:              auctionID,
			Status:          auction.StatusActive,
			CurrentBid:      int64(seq) * 5,
			CurrentBidderID: "team-a",
			History:         []auction.BidEvent{},
		},
	}
}

func TestRelay_PublishesToBaseAndAuctionChannels(t *testing.T) {
	publisher := &fakePublisher{}
	relay := NewRelay(publisher, Config{Channel: "draft"}, logging.NewNop())

	events := make(chan auction.Event, 2)
	events <- testEvent("a-1", 1)
	events <- testEvent("a-2", 2)
	close(events)

	require.NoError(t, relay.Run(t.Context(), events))

	frames, _ := publisher.snapshot()
	require.Len(t, frames, 4)
	assert.Equal(t, []string{"draft", "draft:a-1", "draft", "draft:a-2"}, []string{
		frames[0].channel, frames[1].channel, frames[2].channel, frames[3].channel,
	})

	decoded, err := eventwire.DecodeEvent(frames[3].payload)
	require.NoError(t, err)
	assert.Equal(t, "a-2", decoded.AuctionID)
	assert.Equal(t, uint64(2), decoded.Sequence)
	assert.Equal(t, int64(10), decoded.Snapshot.CurrentBid)
}

func TestRelay_DefaultChannel(t *testing.T) {
	relay := NewRelay(&fakePublisher{}, Config{}, logging.NewNop())
	assert.Equal(t, DefaultChannel+":a-9", relay.AuctionChannel("a-9"))
}

func TestRelay_FailuresOpenBreakerWithoutStopping(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("connection refused")}
	relay := NewRelay(publisher, Config{
		Channel: "draft",
		Breaker: resilience.CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour},
	}, logging.NewNop())

	events := make(chan auction.Event, 5)
	for i := 1; i <= 5; i++ {
		events <- testEvent("a-1", uint64(i))
	}
	close(events)

	require.NoError(t, relay.Run(t.Context(), events))

	_, calls := publisher.snapshot()
	assert.Equal(t, 2, calls)
	assert.Equal(t, resilience.CircuitStateOpen, relay.breaker.State())
}

func TestRelay_StopsOnCancel(t *testing.T) {
	relay := NewRelay(&fakePublisher{}, Config{}, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, make(chan auction.Event)) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}

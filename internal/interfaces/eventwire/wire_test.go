package eventwire

import (
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
)

func TestFromSnapshot_TimeRemaining(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(90 * time.Second)

	timed := FromSnapshot(auction.Snapshot{ID: "a-1", Status: auction.StatusActive, ExpiresAt: &expires}, now)
	if timed.TimeRemainingSeconds == nil || *timed.TimeRemainingSeconds != 90 {
		t.Fatalf("expected 90 seconds remaining, got %v", timed.TimeRemainingSeconds)
	}

	untimed := FromSnapshot(auction.Snapshot{ID: "a-2", Status: auction.StatusActive}, now)
	if untimed.TimeRemainingSeconds != nil {
		t.Fatalf("expected no remaining time for untimed auction, got %d", *untimed.TimeRemainingSeconds)
	}

	done := FromSnapshot(auction.Snapshot{ID: "a-3", Status: auction.StatusCompleted, ExpiresAt: &expires}, now)
	if done.TimeRemainingSeconds == nil || *done.TimeRemainingSeconds != 0 {
		t.Fatalf("expected zero remaining for completed auction")
	}
	if done.History == nil {
		t.Fatalf("history must encode as an empty list")
	}
}

func TestEncodeEvent(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	evt := auction.Event{
		Type:      auction.EventAuctionCompleted,
		AuctionID: "a-1",
		Sequence:  7,
		Snapshot: auction.Snapshot{
			ID:              "a-1",
			Prospect:        auction.ProspectRef{ID: "p-1", Name: "Prospect", Position: prospect.PositionCatcher},
			NominatorID:     "team-a",
			CurrentBid:      10,
			CurrentBidderID: "team-b",
			Status:          auction.StatusCompleted,
			History:         []auction.BidEvent{{TeamID: "team-b", Amount: 10, PlacedAt: now}},
		},
		Outcome:    &auction.Outcome{Status: auction.StatusCompleted, WinnerID: "team-b", AmountPaid: 10, WinnerBalance: 20},
		OccurredAt: now,
	}

	raw, err := EncodeEvent(evt)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.HasSuffix(string(raw), "\n") {
		t.Fatalf("frame must not end with a newline")
	}
	for _, want := range []string{`"type":"auction_completed"`, `"auction_id":"a-1"`, `"winner_balance":20`, `"position":"C"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("frame %s missing %s", raw, want)
		}
	}

	decoded, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Sequence != 7 || decoded.Outcome == nil || decoded.Outcome.WinnerID != "team-b" {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}
	if len(decoded.Snapshot.History) != 1 || !decoded.Snapshot.History[0].PlacedAt.Equal(now) {
		t.Fatalf("unexpected history: %+v", decoded.Snapshot.History)
	}
}

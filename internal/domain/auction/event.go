package auction

import "time"

type EventType string

const (
	EventBidPlaced        EventType = "bid_placed"
	EventAuctionCompleted EventType = "auction_completed"
	EventAuctionCancelled EventType = "auction_cancelled"
)

// Event is published after a committed auction mutation.
type Event struct {
	Type       EventType
	AuctionID  string
	Snapshot   Snapshot
	Outcome    *Outcome
	OccurredAt time.Time
	// Sequence is assigned by the broadcaster and increases across all events.
	Sequence uint64
}

// TeamIDs lists the teams an event concerns: the nominator, the leader and,
// for bid events, the team that was outbid.
func (e Event) TeamIDs() []string {
	seen := make(map[string]struct{}, 3)
	out := make([]string, 0, 3)
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(e.Snapshot.NominatorID)
	add(e.Snapshot.CurrentBidderID)
	if e.Type == EventBidPlaced {
		if n := len(e.Snapshot.History); n >= 2 {
			add(e.Snapshot.History[n-2].TeamID)
		}
	}
	return out
}

func EventTypeForOutcome(o Outcome) EventType {
	if o.Status == StatusCompleted {
		return EventAuctionCompleted
	}
	return EventAuctionCancelled
}

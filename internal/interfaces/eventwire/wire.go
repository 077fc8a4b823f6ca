// Package eventwire holds the JSON shapes shared by the HTTP API, the
// WebSocket stream and the Redis relay.
package eventwire

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/valyala/bytebufferpool"
)

type Bid struct {
	TeamID   string    `json:"team_id"`
	Amount   int64     `json:"amount"`
	PlacedAt time.Time `json:"placed_at"`
}

type Prospect struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

type Auction struct {
	ID              string     `json:"id"`
	Prospect        Prospect   `json:"prospect"`
	NominatorID     string     `json:"nominator_id"`
	StartingBid     int64      `json:"starting_bid"`
	CurrentBid      int64      `json:"current_bid"`
	CurrentBidderID string     `json:"current_bidder_id"`
	Status          string     `json:"status"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastBidTime     time.Time  `json:"last_bid_time"`
	ExpiresAt       *time.Time `json:"expires_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	// TimeRemainingSeconds is null for auctions without a timer.
	TimeRemainingSeconds *int64 `json:"time_remaining_seconds"`
	BidCount             int    `json:"bid_count"`
	History              []Bid  `json:"history"`
	Version              int64  `json:"version"`
}

type Outcome struct {
	Status        string `json:"status"`
	CancelReason  string `json:"cancel_reason,omitempty"`
	WinnerID      string `json:"winner_id,omitempty"`
	AmountPaid    int64  `json:"amount_paid,omitempty"`
	WinnerBalance int64  `json:"winner_balance,omitempty"`
}

type Event struct {
	Type       string    `json:"type"`
	AuctionID  string    `json:"auction_id"`
	Sequence   uint64    `json:"sequence"`
	OccurredAt time.Time `json:"occurred_at"`
	Snapshot   Auction   `json:"snapshot"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
}

// FromSnapshot renders a snapshot as seen at now.
func FromSnapshot(s auction.Snapshot, now time.Time) Auction {
	history := make([]Bid, 0, len(s.History))
	for _, b := range s.History {
		history = append(history, Bid{TeamID: b.TeamID, Amount: b.Amount, PlacedAt: b.PlacedAt})
	}

	out := Auction{
		ID: s.ID,
		Prospect: Prospect{
			ID:       s.Prospect.ID,
			Name:     s.Prospect.Name,
			Position: string(s.Prospect.Position),
		},
		NominatorID:     s.NominatorID,
		StartingBid:     s.StartingBid,
		CurrentBid:      s.CurrentBid,
		CurrentBidderID: s.CurrentBidderID,
		Status:          string(s.Status),
		CancelReason:    string(s.CancelReason),
		CreatedAt:       s.CreatedAt,
		LastBidTime:     s.LastBidTime,
		ExpiresAt:       s.ExpiresAt,
		CompletedAt:     s.CompletedAt,
		BidCount:        len(s.History),
		History:         history,
		Version:         s.Version,
	}
	if remaining := s.TimeRemaining(now); remaining >= 0 {
		seconds := int64(remaining / time.Second)
		out.TimeRemainingSeconds = &seconds
	}
	return out
}

func FromSnapshots(items []auction.Snapshot, now time.Time) []Auction {
	out := make([]Auction, 0, len(items))
	for _, item := range items {
		out = append(out, FromSnapshot(item, now))
	}
	return out
}

func FromOutcome(o auction.Outcome) Outcome {
	return Outcome{
		Status:        string(o.Status),
		CancelReason:  string(o.CancelReason),
		WinnerID:      o.WinnerID,
		AmountPaid:    o.AmountPaid,
		WinnerBalance: o.WinnerBalance,
	}
}

func FromEvent(e auction.Event) Event {
	out := Event{
		Type:       string(e.Type),
		AuctionID:  e.AuctionID,
		Sequence:   e.Sequence,
		OccurredAt: e.OccurredAt,
		Snapshot:   FromSnapshot(e.Snapshot, e.OccurredAt),
	}
	if e.Outcome != nil {
		outcome := FromOutcome(*e.Outcome)
		out.Outcome = &outcome
	}
	return out
}

// EncodeEvent returns the JSON frame for an event. The returned slice is
// owned by the caller.
func EncodeEvent(e auction.Event) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(FromEvent(e)); err != nil {
		return nil, errors.Wrapf(err, "encode %s event for auction %s", e.Type, e.AuctionID)
	}

	frame := buf.B
	if n := len(frame); n > 0 && frame[n-1] == '\n' {
		frame = frame[:n-1]
	}
	out := make([]byte, len(frame))
	copy(out, frame)
	return out, nil
}

func DecodeEvent(raw []byte) (Event, error) {
	var out Event
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return Event{}, errors.Wrap(err, "decode event")
	}
	return out, nil
}

package auction

import (
	"time"

	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type CancelReason string

const (
	CancelReasonNone              CancelReason = ""
	CancelReasonNoExternalBids    CancelReason = "no_external_bids"
	CancelReasonInsufficientFunds CancelReason = "insufficient_funds"
	CancelReasonSettlementFailed  CancelReason = "settlement_failed"
	CancelReasonAdmin             CancelReason = "admin"
)

// BidEvent is one accepted bid. History entries are never modified.
type BidEvent struct {
	TeamID   string
	Amount   int64
	PlacedAt time.Time
}

// ProspectRef identifies the auctioned prospect inside snapshots.
type ProspectRef struct {
	ID       string
	Name     string
	Position prospect.Position
}

// Snapshot is an immutable copy of an auction's state.
type Snapshot struct {
	ID              string
	Prospect        ProspectRef
	NominatorID     string
	StartingBid     int64
	CurrentBid      int64
	CurrentBidderID string
	Status          Status
	CancelReason    CancelReason
	CreatedAt       time.Time
	LastBidTime     time.Time
	ExpiresAt       *time.Time
	CompletedAt     *time.Time
	History         []BidEvent
	// Version increments on every committed mutation.
	Version int64
}

// Expired reports whether an active auction's deadline has passed at now.
func (s Snapshot) Expired(now time.Time) bool {
	return s.Status == StatusActive && s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// TimeRemaining is zero for terminal or expired auctions and -1 when there is no timer.
func (s Snapshot) TimeRemaining(now time.Time) time.Duration {
	if s.Status != StatusActive {
		return 0
	}
	if s.ExpiresAt == nil {
		return -1
	}
	if left := s.ExpiresAt.Sub(now); left > 0 {
		return left
	}
	return 0
}

// HasExternalBids reports whether anyone other than the nominator's opening bid exists.
func (s Snapshot) HasExternalBids() bool {
	return len(s.History) > 0
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.ExpiresAt = cloneTime(s.ExpiresAt)
	out.CompletedAt = cloneTime(s.CompletedAt)
	out.History = make([]BidEvent, len(s.History))
	copy(out.History, s.History)
	return out
}

// Outcome describes how settlement resolved.
type Outcome struct {
	Status        Status
	CancelReason  CancelReason
	WinnerID      string
	AmountPaid    int64
	WinnerBalance int64
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

package auction

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
)

// BalanceReader is the read side of the ledger used at bid time.
type BalanceReader interface {
	Balance(ctx context.Context, teamID string) (int64, error)
}

// OwnerAssigner hands a prospect to the winning team during settlement.
type OwnerAssigner interface {
	AssignOwner(ctx context.Context, prospectID, teamID string, at time.Time) error
}

// NewParams describes a nomination.
type NewParams struct {
	ID          string
	Prospect    ProspectRef
	NominatorID string
	StartingBid int64
}

// Auction is a single bidding contest. It is not safe for concurrent use;
// callers serialize access per auction.
type Auction struct {
	state  Snapshot
	policy Policy
}

// New opens an auction. The nominator must be able to cover the starting bid.
func New(ctx context.Context, params NewParams, policy Policy, balances BalanceReader, now time.Time) (*Auction, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, errors.New("auction id is required")
	}
	if strings.TrimSpace(params.NominatorID) == "" {
		return nil, errors.New("nominator is required")
	}
	if strings.TrimSpace(params.Prospect.ID) == "" {
		return nil, errors.New("prospect is required")
	}
	if params.StartingBid < policy.MinimumBid {
		return nil, errors.Wrapf(ErrBelowMinimum, "starting bid %d, minimum %d", params.StartingBid, policy.MinimumBid)
	}

	balance, err := balances.Balance(ctx, params.NominatorID)
	if err != nil {
		return nil, errors.Wrapf(err, "read balance of nominator %s", params.NominatorID)
	}
	if balance < params.StartingBid {
		return nil, errors.Wrapf(ErrInsufficientFunds, "nominator %s has %d, starting bid %d", params.NominatorID, balance, params.StartingBid)
	}

	state := Snapshot{
		ID:              params.ID,
		Prospect:        params.Prospect,
		NominatorID:     params.NominatorID,
		StartingBid:     params.StartingBid,
		CurrentBid:      params.StartingBid,
		CurrentBidderID: params.NominatorID,
		Status:          StatusActive,
		CreatedAt:       now,
		LastBidTime:     now,
		History:         []BidEvent{},
		Version:         1,
	}
	if policy.TTL > 0 {
		expiresAt := now.Add(policy.TTL)
		state.ExpiresAt = &expiresAt
	}

	return &Auction{state: state, policy: policy}, nil
}

func (a *Auction) ID() string {
	return a.state.ID
}

func (a *Auction) Status() Status {
	return a.state.Status
}

// Snapshot returns a deep copy of the current state.
func (a *Auction) Snapshot() Snapshot {
	return a.state.clone()
}

// Expired reports whether the auction is active with a deadline at or before now.
func (a *Auction) Expired(now time.Time) bool {
	return a.state.Expired(now)
}

// PlaceBid applies a bid. The caller must hold the auction's lock so the checks
// and the mutation observe the same state.
func (a *Auction) PlaceBid(ctx context.Context, teamID string, amount int64, balances BalanceReader, now time.Time) error {
	s := &a.state
	if s.Status != StatusActive {
		return errors.Wrapf(ErrAuctionNotActive, "auction %s is %s", s.ID, s.Status)
	}
	if s.Expired(now) {
		return errors.Wrapf(ErrAuctionNotActive, "auction %s expired at %s", s.ID, s.ExpiresAt.Format(time.RFC3339))
	}
	if teamID == s.CurrentBidderID {
		return errors.Wrapf(ErrSelfOutbid, "team %s on auction %s", teamID, s.ID)
	}
	if amount <= s.CurrentBid {
		return errors.Wrapf(ErrBidTooLow, "bid %d, current bid %d", amount, s.CurrentBid)
	}

	balance, err := balances.Balance(ctx, teamID)
	if err != nil {
		return errors.Wrapf(err, "read balance of team %s", teamID)
	}
	if balance < amount {
		return errors.Wrapf(ErrInsufficientFunds, "team %s has %d, bid %d", teamID, balance, amount)
	}

	s.History = append(s.History, BidEvent{TeamID: teamID, Amount: amount, PlacedAt: now})
	s.CurrentBid = amount
	s.CurrentBidderID = teamID
	s.LastBidTime = now
	s.ExpiresAt = a.policy.extend(now, s.ExpiresAt)
	s.Version++

	return a.Verify()
}

// Settle closes the auction exactly once. Settlement problems end in a cancelled
// auction rather than an error; an error means the auction was not active or an
// invariant broke.
func (a *Auction) Settle(ctx context.Context, ledger team.Ledger, owners OwnerAssigner, now time.Time) (Outcome, error) {
	s := &a.state
	if s.Status != StatusActive {
		return Outcome{}, errors.Wrapf(ErrAuctionNotActive, "auction %s already %s", s.ID, s.Status)
	}

	if a.policy.RequireExternalBid && !s.HasExternalBids() {
		return a.cancel(now, CancelReasonNoExternalBids)
	}

	balance, err := ledger.Debit(ctx, s.CurrentBidderID, s.CurrentBid)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return a.cancel(now, CancelReasonInsufficientFunds)
		}
		if errors.HasAssertionFailure(err) {
			return Outcome{}, err
		}
		return a.cancel(now, CancelReasonSettlementFailed)
	}

	if err := owners.AssignOwner(ctx, s.Prospect.ID, s.CurrentBidderID, now); err != nil {
		if _, refundErr := ledger.Credit(ctx, s.CurrentBidderID, s.CurrentBid); refundErr != nil {
			return Outcome{}, errors.NewAssertionErrorWithWrappedErrf(refundErr,
				"auction %s: refund of %d to %s failed after assignment error: %v", s.ID, s.CurrentBid, s.CurrentBidderID, err)
		}
		return a.cancel(now, CancelReasonSettlementFailed)
	}

	completedAt := now
	s.Status = StatusCompleted
	s.CompletedAt = &completedAt
	s.Version++

	if err := a.Verify(); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Status:        StatusCompleted,
		WinnerID:      s.CurrentBidderID,
		AmountPaid:    s.CurrentBid,
		WinnerBalance: balance,
	}, nil
}

// Cancel ends an active auction without any transfer.
func (a *Auction) Cancel(now time.Time, reason CancelReason) (Outcome, error) {
	if a.state.Status != StatusActive {
		return Outcome{}, errors.Wrapf(ErrAuctionNotActive, "auction %s already %s", a.state.ID, a.state.Status)
	}
	return a.cancel(now, reason)
}

func (a *Auction) cancel(now time.Time, reason CancelReason) (Outcome, error) {
	completedAt := now
	a.state.Status = StatusCancelled
	a.state.CancelReason = reason
	a.state.CompletedAt = &completedAt
	a.state.Version++

	if err := a.Verify(); err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: StatusCancelled, CancelReason: reason}, nil
}

// Verify checks the auction invariants and returns an assertion failure when
// one does not hold.
func (a *Auction) Verify() error {
	s := a.state
	if s.CurrentBid < s.StartingBid {
		return errors.AssertionFailedf("auction %s: current bid %d below starting bid %d", s.ID, s.CurrentBid, s.StartingBid)
	}

	if n := len(s.History); n == 0 {
		if s.CurrentBidderID != s.NominatorID || s.CurrentBid != s.StartingBid {
			return errors.AssertionFailedf("auction %s: leader %s/%d without bids", s.ID, s.CurrentBidderID, s.CurrentBid)
		}
	} else {
		last := s.History[n-1]
		if last.TeamID != s.CurrentBidderID || last.Amount != s.CurrentBid {
			return errors.AssertionFailedf("auction %s: leader %s/%d differs from last bid %s/%d",
				s.ID, s.CurrentBidderID, s.CurrentBid, last.TeamID, last.Amount)
		}
	}

	prevAmount, prevAt := s.StartingBid, s.CreatedAt
	for i, entry := range s.History {
		if entry.Amount <= prevAmount {
			return errors.AssertionFailedf("auction %s: bid %d amount %d not above %d", s.ID, i, entry.Amount, prevAmount)
		}
		if entry.PlacedAt.Before(prevAt) {
			return errors.AssertionFailedf("auction %s: bid %d placed before its predecessor", s.ID, i)
		}
		prevAmount, prevAt = entry.Amount, entry.PlacedAt
	}

	if (s.Status == StatusActive) == (s.CompletedAt != nil) {
		return errors.AssertionFailedf("auction %s: status %s with completed_at set=%t", s.ID, s.Status, s.CompletedAt != nil)
	}
	return nil
}

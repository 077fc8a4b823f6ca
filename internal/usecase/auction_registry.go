package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
)

type auctionSlot struct {
	mu      sync.Mutex
	auction *auction.Auction
	// snapshot is replaced after every committed mutation and read without mu.
	snapshot atomic.Pointer[auction.Snapshot]
	halted   atomic.Bool
}

// AuctionRegistry owns every auction and serializes mutations per auction id.
// Bids and settlements on different auctions never wait on each other.
type AuctionRegistry struct {
	mu    sync.RWMutex
	slots map[string]*auctionSlot
	order []string

	ledger    team.Ledger
	owners    auction.OwnerAssigner
	publisher EventPublisher
	logger    *logging.Logger
	now       func() time.Time
}

func NewAuctionRegistry(ledger team.Ledger, owners auction.OwnerAssigner, publisher EventPublisher, logger *logging.Logger) *AuctionRegistry {
	if logger == nil {
		logger = logging.Default()
	}
	if publisher == nil {
		publisher = NewEventBroadcaster(0, logger)
	}
	return &AuctionRegistry{
		slots:     make(map[string]*auctionSlot),
		ledger:    ledger,
		owners:    owners,
		publisher: publisher,
		logger:    logger.Named("registry"),
		now:       time.Now,
	}
}

// Open creates an active auction and makes it visible to readers.
func (r *AuctionRegistry) Open(ctx context.Context, params auction.NewParams, policy auction.Policy) (auction.Snapshot, error) {
	a, err := auction.New(ctx, params, policy, r.ledger, r.now())
	if err != nil {
		return auction.Snapshot{}, err
	}

	slot := &auctionSlot{auction: a}
	snap := a.Snapshot()
	slot.snapshot.Store(&snap)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[params.ID]; ok {
		return auction.Snapshot{}, errors.Newf("auction %s already registered", params.ID)
	}
	r.slots[params.ID] = slot
	r.order = append(r.order, params.ID)
	return snap, nil
}

// Bid applies a bid under the auction's lock and publishes bid_placed.
func (r *AuctionRegistry) Bid(ctx context.Context, auctionID, teamID string, amount int64) (auction.Snapshot, error) {
	snap, _, err := r.mutate(ctx, auctionID, func(a *auction.Auction, now time.Time) (*auction.Event, *auction.Outcome, error) {
		if err := a.PlaceBid(ctx, teamID, amount, r.ledger, now); err != nil {
			return nil, nil, err
		}
		return &auction.Event{Type: auction.EventBidPlaced}, nil, nil
	})
	return snap, err
}

// SettleExpired settles the auction only if it is still expired once its lock
// is held. A bid that extended the deadline first wins.
func (r *AuctionRegistry) SettleExpired(ctx context.Context, auctionID string) (auction.Snapshot, auction.Outcome, error) {
	return r.settle(ctx, auctionID, true)
}

// Close settles an active auction immediately, including auctions without a timer.
func (r *AuctionRegistry) Close(ctx context.Context, auctionID string) (auction.Snapshot, auction.Outcome, error) {
	return r.settle(ctx, auctionID, false)
}

func (r *AuctionRegistry) Cancel(ctx context.Context, auctionID string, reason auction.CancelReason) (auction.Snapshot, error) {
	snap, _, err := r.mutate(ctx, auctionID, func(a *auction.Auction, now time.Time) (*auction.Event, *auction.Outcome, error) {
		outcome, err := a.Cancel(now, reason)
		if err != nil {
			return nil, nil, err
		}
		return &auction.Event{Type: auction.EventAuctionCancelled, Outcome: &outcome}, &outcome, nil
	})
	return snap, err
}

func (r *AuctionRegistry) settle(ctx context.Context, auctionID string, onlyExpired bool) (auction.Snapshot, auction.Outcome, error) {
	var result auction.Outcome
	snap, outcome, err := r.mutate(ctx, auctionID, func(a *auction.Auction, now time.Time) (*auction.Event, *auction.Outcome, error) {
		if onlyExpired && !a.Expired(now) {
			return nil, nil, errors.Wrapf(errNotExpired, "auction %s", a.ID())
		}
		outcome, err := a.Settle(ctx, r.ledger, r.owners, now)
		if err != nil {
			return nil, nil, err
		}
		return &auction.Event{Type: auction.EventTypeForOutcome(outcome), Outcome: &outcome}, &outcome, nil
	})
	if outcome != nil {
		result = *outcome
		r.logger.InfoContext(ctx, "auction settled",
			"auction_id", auctionID,
			"status", string(result.Status),
			"winner_id", result.WinnerID,
			"amount", result.AmountPaid,
			"cancel_reason", string(result.CancelReason),
		)
	}
	return snap, result, err
}

// mutate runs fn with the auction locked. An invariant violation or panic inside
// fn halts that auction only; its last good snapshot stays readable.
func (r *AuctionRegistry) mutate(
	ctx context.Context,
	auctionID string,
	fn func(a *auction.Auction, now time.Time) (*auction.Event, *auction.Outcome, error),
) (snap auction.Snapshot, outcome *auction.Outcome, err error) {
	slot, ok := r.slot(auctionID)
	if !ok {
		return auction.Snapshot{}, nil, errors.Wrapf(auction.ErrAuctionNotFound, "auction %s", auctionID)
	}
	if slot.halted.Load() {
		return auction.Snapshot{}, nil, errors.Wrapf(auction.ErrAuctionHalted, "auction %s", auctionID)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.halted.Load() {
		return auction.Snapshot{}, nil, errors.Wrapf(auction.ErrAuctionHalted, "auction %s", auctionID)
	}

	defer func() {
		if rec := recover(); rec != nil {
			snap, outcome = auction.Snapshot{}, nil
			err = r.halt(ctx, slot, auctionID, errors.AssertionFailedf("panic in auction %s: %v", auctionID, rec))
		}
	}()

	now := r.now()
	evt, outcome, err := fn(slot.auction, now)
	if err != nil {
		if errors.HasAssertionFailure(err) {
			return auction.Snapshot{}, nil, r.halt(ctx, slot, auctionID, err)
		}
		return auction.Snapshot{}, nil, err
	}

	snap = slot.auction.Snapshot()
	published := snap
	slot.snapshot.Store(&published)

	if evt != nil {
		evt.AuctionID = auctionID
		evt.Snapshot = published
		evt.OccurredAt = now
		r.publisher.Publish(*evt)
	}
	return snap, outcome, nil
}

func (r *AuctionRegistry) halt(ctx context.Context, slot *auctionSlot, auctionID string, cause error) error {
	slot.halted.Store(true)
	r.logger.ErrorContext(ctx, "auction halted", "auction_id", auctionID, "error", cause)
	return errors.Mark(cause, auction.ErrAuctionHalted)
}

// Get returns the latest committed snapshot.
func (r *AuctionRegistry) Get(_ context.Context, auctionID string) (auction.Snapshot, error) {
	slot, ok := r.slot(auctionID)
	if !ok {
		return auction.Snapshot{}, errors.Wrapf(auction.ErrAuctionNotFound, "auction %s", auctionID)
	}
	return *slot.snapshot.Load(), nil
}

// Halted reports whether the auction stopped after an invariant violation.
func (r *AuctionRegistry) Halted(auctionID string) bool {
	slot, ok := r.slot(auctionID)
	return ok && slot.halted.Load()
}

// List returns snapshots matching keep in creation order.
func (r *AuctionRegistry) List(keep func(auction.Snapshot) bool) []auction.Snapshot {
	r.mu.RLock()
	slots := make([]*auctionSlot, 0, len(r.order))
	for _, id := range r.order {
		slots = append(slots, r.slots[id])
	}
	r.mu.RUnlock()

	out := make([]auction.Snapshot, 0, len(slots))
	for _, slot := range slots {
		snap := *slot.snapshot.Load()
		if keep == nil || keep(snap) {
			out = append(out, snap)
		}
	}
	return out
}

func (r *AuctionRegistry) ListActive() []auction.Snapshot {
	return r.List(byStatus(auction.StatusActive))
}

func (r *AuctionRegistry) ListCompleted() []auction.Snapshot {
	out := r.List(byStatus(auction.StatusCompleted))
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(*out[j].CompletedAt)
	})
	return out
}

// ExpiredIDs lists active, timed auctions whose deadline is at or before the
// registry clock, skipping halted ones.
func (r *AuctionRegistry) ExpiredIDs() []string {
	now := r.now()
	snaps := r.List(func(s auction.Snapshot) bool { return s.Expired(now) })

	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		if !r.Halted(s.ID) {
			out = append(out, s.ID)
		}
	}
	return out
}

func (r *AuctionRegistry) slot(auctionID string) (*auctionSlot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.slots[auctionID]
	return slot, ok
}

func byStatus(status auction.Status) func(auction.Snapshot) bool {
	return func(s auction.Snapshot) bool { return s.Status == status }
}

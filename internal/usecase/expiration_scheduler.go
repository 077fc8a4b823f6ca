package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
)

const (
	defaultSweepInterval = 30 * time.Second
	defaultSweepWorkers  = 8
)

type ExpirationSchedulerConfig struct {
	Interval time.Duration
	Workers  int
}

type SweepSettlement struct {
	AuctionID    string               `json:"auction_id"`
	Status       auction.Status       `json:"status"`
	CancelReason auction.CancelReason `json:"cancel_reason,omitempty"`
	WinnerID     string               `json:"winner_id,omitempty"`
	AmountPaid   int64                `json:"amount_paid,omitempty"`
}

type SweepResult struct {
	DryRun     bool              `json:"dry_run"`
	Candidates []string          `json:"candidates"`
	Settled    []SweepSettlement `json:"settled"`
	Completed  int               `json:"completed"`
	Cancelled  int               `json:"cancelled"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
}

// ExpirationScheduler periodically settles auctions whose deadline passed.
// Settlement goes through the registry lock, so each auction settles once.
type ExpirationScheduler struct {
	registry *AuctionRegistry
	cfg      ExpirationSchedulerConfig
	logger   *logging.Logger
	running  atomic.Bool
}

func NewExpirationScheduler(registry *AuctionRegistry, cfg ExpirationSchedulerConfig, logger *logging.Logger) *ExpirationScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSweepInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultSweepWorkers
	}
	return &ExpirationScheduler{
		registry: registry,
		cfg:      cfg,
		logger:   logger.Named("expiration"),
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *ExpirationScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("expiration scheduler started", "interval", s.cfg.Interval, "workers", s.cfg.Workers)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiration scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx, false); err != nil {
				s.logger.Error("expiration sweep failed", "error", err)
			}
		}
	}
}

// Sweep settles every expired auction. With dryRun it only reports candidates.
// Overlapping sweeps are skipped rather than queued.
func (s *ExpirationScheduler) Sweep(ctx context.Context, dryRun bool) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ExpirationScheduler.Sweep")
	defer span.End()

	result := SweepResult{DryRun: dryRun, Candidates: s.registry.ExpiredIDs(), Settled: []SweepSettlement{}}
	if dryRun || len(result.Candidates) == 0 {
		return result, nil
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("expiration sweep already running, skipping")
		return result, nil
	}
	defer s.running.Store(false)

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return SweepResult{}, errors.Wrap(err, "create sweep worker pool")
	}
	defer pool.Release()

	var (
		mu        sync.Mutex
		workers   sync.WaitGroup
		skipped   atomic.Int32
		failed    atomic.Int32
		completed atomic.Int32
		cancelled atomic.Int32
	)

	var submitErr error
	for _, auctionID := range result.Candidates {
		auctionID := auctionID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			_, outcome, err := s.registry.SettleExpired(ctx, auctionID)
			switch {
			case errors.Is(err, errNotExpired), errors.Is(err, auction.ErrAuctionNotActive):
				skipped.Add(1)
				return
			case err != nil:
				failed.Add(1)
				s.logger.ErrorContext(ctx, "settle expired auction failed", "auction_id", auctionID, "error", err)
				return
			}

			if outcome.Status == auction.StatusCompleted {
				completed.Add(1)
			} else {
				cancelled.Add(1)
			}
			mu.Lock()
			result.Settled = append(result.Settled, SweepSettlement{
				AuctionID:    auctionID,
				Status:       outcome.Status,
				CancelReason: outcome.CancelReason,
				WinnerID:     outcome.WinnerID,
				AmountPaid:   outcome.AmountPaid,
			})
			mu.Unlock()
		}); err != nil {
			workers.Done()
			submitErr = errors.Wrap(err, "submit settlement to worker pool")
			break
		}
	}
	workers.Wait()
	if submitErr != nil {
		return SweepResult{}, submitErr
	}

	sort.SliceStable(result.Settled, func(i, j int) bool {
		return result.Settled[i].AuctionID < result.Settled[j].AuctionID
	})
	result.Completed = int(completed.Load())
	result.Cancelled = int(cancelled.Load())
	result.Skipped = int(skipped.Load())
	result.Failed = int(failed.Load())

	s.logger.InfoContext(ctx, "expiration sweep finished",
		"candidates", len(result.Candidates),
		"completed", result.Completed,
		"cancelled", result.Cancelled,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

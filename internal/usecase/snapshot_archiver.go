package usecase

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/riskibarqy/prospect-auction/internal/platform/resilience"
)

const (
	defaultArchiveQueue   = 256
	defaultArchiveTimeout = 5 * time.Second
)

// SnapshotRecorder receives state that should outlive the process.
// Implementations must not block the caller.
type SnapshotRecorder interface {
	RecordAuction(ctx context.Context, snap auction.Snapshot)
	RecordTeam(ctx context.Context, item team.Team)
	RecordProspect(ctx context.Context, item prospect.Prospect)
}

// SnapshotStore is the durable side of the archiver. Saves are upserts; an
// auction save with an older version than the stored one is ignored.
type SnapshotStore interface {
	SaveAuction(ctx context.Context, snap auction.Snapshot) error
	SaveTeam(ctx context.Context, item team.Team) error
	SaveTeamBalance(ctx context.Context, teamID string, balance int64, at time.Time) error
	SaveProspect(ctx context.Context, item prospect.Prospect) error
	SaveProspectOwner(ctx context.Context, prospectID, teamID string, at time.Time) error
}

type SnapshotArchiverConfig struct {
	QueueSize   int
	SaveTimeout time.Duration
	Breaker     resilience.CircuitBreakerConfig
}

type archiveJob struct {
	name string
	save func(ctx context.Context) error
}

// SnapshotArchiver writes engine state to a SnapshotStore off the request
// path. When the store keeps failing the breaker opens and writes are skipped
// until it recovers; in-memory state stays authoritative.
type SnapshotArchiver struct {
	store   SnapshotStore
	breaker *resilience.CircuitBreaker
	jobs    chan archiveJob
	timeout time.Duration
	logger  *logging.Logger
}

func NewSnapshotArchiver(store SnapshotStore, cfg SnapshotArchiverConfig, logger *logging.Logger) *SnapshotArchiver {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultArchiveQueue
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = defaultArchiveTimeout
	}

	return &SnapshotArchiver{
		store:   store,
		breaker: resilience.NewCircuitBreaker(cfg.Breaker),
		jobs:    make(chan archiveJob, cfg.QueueSize),
		timeout: cfg.SaveTimeout,
		logger:  logger.Named("archiver"),
	}
}

func (a *SnapshotArchiver) RecordAuction(_ context.Context, snap auction.Snapshot) {
	a.enqueue(archiveJob{name: "auction", save: func(ctx context.Context) error {
		return a.store.SaveAuction(ctx, snap)
	}})
}

func (a *SnapshotArchiver) RecordTeam(_ context.Context, item team.Team) {
	a.enqueue(archiveJob{name: "team", save: func(ctx context.Context) error {
		return a.store.SaveTeam(ctx, item)
	}})
}

func (a *SnapshotArchiver) RecordProspect(_ context.Context, item prospect.Prospect) {
	a.enqueue(archiveJob{name: "prospect", save: func(ctx context.Context) error {
		return a.store.SaveProspect(ctx, item.Clone())
	}})
}

func (a *SnapshotArchiver) enqueue(job archiveJob) {
	select {
	case a.jobs <- job:
	default:
		a.logger.Warn("archive queue full, dropping snapshot", "kind", job.name)
	}
}

// Run drains engine events from sub and queued records until ctx is done or
// the subscription closes.
func (a *SnapshotArchiver) Run(ctx context.Context, sub *Subscription) error {
	defer sub.Close()

	a.logger.Info("snapshot archiver started")
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("snapshot archiver stopped")
			return nil
		case evt, ok := <-sub.Events():
			if !ok {
				a.logger.Info("snapshot archiver subscription closed")
				return nil
			}
			a.archiveEvent(ctx, evt)
		case job := <-a.jobs:
			a.save(ctx, job)
		}
	}
}

func (a *SnapshotArchiver) archiveEvent(ctx context.Context, evt auction.Event) {
	snap := evt.Snapshot
	a.save(ctx, archiveJob{name: "auction", save: func(ctx context.Context) error {
		return a.store.SaveAuction(ctx, snap)
	}})

	if evt.Type != auction.EventAuctionCompleted || evt.Outcome == nil {
		return
	}
	outcome := *evt.Outcome
	a.save(ctx, archiveJob{name: "prospect_owner", save: func(ctx context.Context) error {
		return a.store.SaveProspectOwner(ctx, snap.Prospect.ID, outcome.WinnerID, evt.OccurredAt)
	}})
	a.save(ctx, archiveJob{name: "team_balance", save: func(ctx context.Context) error {
		return a.store.SaveTeamBalance(ctx, outcome.WinnerID, outcome.WinnerBalance, evt.OccurredAt)
	}})
}

func (a *SnapshotArchiver) save(ctx context.Context, job archiveJob) {
	err := a.breaker.Do(func() error {
		saveCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return job.save(saveCtx)
	})
	switch {
	case err == nil:
	case errors.Is(err, resilience.ErrCircuitOpen):
		a.logger.Debug("archive skipped, circuit open", "kind", job.name)
	default:
		a.logger.Error("archive snapshot failed", "kind", job.name, "error", err)
	}
}

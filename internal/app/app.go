package app

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/config"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/riskibarqy/prospect-auction/internal/infrastructure/eventrelay"
	"github.com/riskibarqy/prospect-auction/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/prospect-auction/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/prospect-auction/internal/interfaces/httpapi"
	"github.com/riskibarqy/prospect-auction/internal/observability"
	idgen "github.com/riskibarqy/prospect-auction/internal/platform/id"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/riskibarqy/prospect-auction/internal/platform/resilience"
	"github.com/riskibarqy/prospect-auction/internal/usecase"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App owns the engine and the processes that run next to the HTTP server.
type App struct {
	cfg        config.Config
	logger     *logging.Logger
	server     *http.Server
	pprof      *http.Server
	events     *usecase.EventBroadcaster
	scheduler  *usecase.ExpirationScheduler
	archiver   *usecase.SnapshotArchiver
	archiveSub *usecase.Subscription
	relay      *eventrelay.Relay
	relaySub   *usecase.Subscription
	closers    []func() error
}

// New builds the engine. With DB_ENABLED the teams and prospects are
// restored from Postgres and every change is archived back; auctions always
// start empty.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, errors.New("http server addr cannot be empty")
	}

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	teams, prospects, store, err := a.loadState(ctx)
	if err != nil {
		return nil, err
	}

	teamRepo := memory.NewTeamRepository(teams)
	prospectRepo := memory.NewProspectRepository(prospects)
	a.events = usecase.NewEventBroadcaster(cfg.EventSubscriberBuffer, logger.Named("events"))

	var recorder usecase.SnapshotRecorder
	if store != nil {
		a.archiver = usecase.NewSnapshotArchiver(store, usecase.SnapshotArchiverConfig{
			Breaker: resilience.CircuitBreakerConfig{
				FailureThreshold: cfg.ArchiveCircuitFailures,
				OpenTimeout:      cfg.ArchiveCircuitOpenTimeout,
			},
		}, logger.Named("archiver"))
		a.archiveSub = a.events.Subscribe(usecase.SubscriptionFilter{})
		recorder = a.archiver
	}

	if cfg.RedisEnabled {
		publisher, err := eventrelay.NewRedisPublisher(ctx, eventrelay.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, errors.Wrap(err, "connect redis relay")
		}
		a.closers = append(a.closers, publisher.Close)
		a.relay = eventrelay.NewRelay(publisher, eventrelay.Config{Channel: cfg.RedisChannel}, logger)
		a.relaySub = a.events.Subscribe(usecase.SubscriptionFilter{})
	}

	idGen := idgen.NewUUIDGenerator()
	registry := usecase.NewAuctionRegistry(teamRepo, prospectRepo, a.events, logger.Named("registry"))
	auctionSvc := usecase.NewAuctionService(registry, teamRepo, prospectRepo, cfg.AuctionPolicy(), recorder, idGen, logger)
	teamSvc := usecase.NewTeamService(teamRepo, cfg.TeamStartingBalance, recorder, idGen, logger)
	prospectSvc := usecase.NewProspectService(prospectRepo, teamRepo, cfg.EligibilityPolicy(), recorder, logger)
	a.scheduler = usecase.NewExpirationScheduler(registry, usecase.ExpirationSchedulerConfig{
		Interval: cfg.AuctionSweepInterval,
		Workers:  cfg.AuctionSweepWorkers,
	}, logger.Named("scheduler"))

	handler := httpapi.NewHandler(auctionSvc, teamSvc, prospectSvc, a.scheduler, a.events, logger)
	router := httpapi.NewRouter(handler, teamSvc, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:         cfg.AdminToken,
		BidRateLimit:       cfg.BidRateLimit,
		BidRateBurst:       cfg.BidRateBurst,
	})

	a.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	a.pprof = observability.NewPprofServer(cfg)

	logger.Info("engine ready",
		"teams", len(teams),
		"prospects", len(prospects),
		"archive_enabled", store != nil,
		"relay_enabled", a.relay != nil,
	)
	ok = true
	return a, nil
}

func (a *App) loadState(ctx context.Context) ([]team.Team, []prospect.Prospect, usecase.SnapshotStore, error) {
	seed := memory.SeedTeams(a.cfg.SeedTeams, a.cfg.TeamStartingBalance, time.Now().UTC())
	if !a.cfg.DBEnabled {
		return seed, nil, nil, nil
	}

	db, err := openTracedDB(ctx, normalizeDBURL(a.cfg.DBURL, a.cfg.DBDisablePreparedBinary))
	if err != nil {
		return nil, nil, nil, err
	}
	a.closers = append(a.closers, db.Close)

	inserted, err := postgres.BootstrapTeams(ctx, db, seed)
	if err != nil {
		return nil, nil, nil, err
	}
	if inserted > 0 {
		a.logger.Info("seed teams inserted", "count", inserted)
	}

	store := postgres.NewSnapshotStore(db)
	teams, err := store.LoadTeams(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	prospects, err := store.LoadProspects(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return teams, prospects, store, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves HTTP and runs the scheduler, archiver and relay until ctx is
// cancelled or one of them fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := a.server.Shutdown(shutdownCtx)
		// Hijacked stream connections are not tracked by Shutdown; closing
		// the broadcaster ends their write pumps.
		a.events.Close()
		if err != nil {
			return errors.Wrap(err, "graceful shutdown")
		}
		a.logger.Info("http server stopped")
		return nil
	})
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	if a.archiver != nil {
		g.Go(func() error {
			return a.archiver.Run(gctx, a.archiveSub)
		})
	}
	if a.relay != nil {
		g.Go(func() error {
			defer a.relaySub.Close()
			return a.relay.Run(gctx, a.relaySub.Events())
		})
	}
	if a.pprof != nil {
		g.Go(func() error {
			return observability.ServePprof(gctx, a.pprof, a.logger, shutdownTimeout)
		})
	}

	return g.Wait()
}

// Close releases the database and relay connections.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	a.closers = nil
	return errs
}

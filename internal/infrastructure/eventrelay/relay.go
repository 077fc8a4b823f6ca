// Package eventrelay forwards auction events to other processes so that
// stream servers outside this one can fan them out.
package eventrelay

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/interfaces/eventwire"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/riskibarqy/prospect-auction/internal/platform/resilience"
)

const (
	DefaultChannel        = "prospect-auction:events"
	defaultPublishTimeout = 2 * time.Second
)

// Publisher delivers one encoded frame to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type Config struct {
	Channel        string
	PublishTimeout time.Duration
	Breaker        resilience.CircuitBreakerConfig
}

// Relay publishes every event to the base channel and to a per-auction
// channel "<base>:<auction id>".
type Relay struct {
	publisher Publisher
	channel   string
	timeout   time.Duration
	breaker   *resilience.CircuitBreaker
	logger    *logging.Logger
}

func NewRelay(publisher Publisher, cfg Config, logger *logging.Logger) *Relay {
	if logger == nil {
		logger = logging.Default()
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	return &Relay{
		publisher: publisher,
		channel:   channel,
		timeout:   timeout,
		breaker:   resilience.NewCircuitBreaker(cfg.Breaker),
		logger:    logger.Named("eventrelay"),
	}
}

// Run relays events until ctx is cancelled or events is closed. Publish
// failures are logged and never stop the loop.
func (r *Relay) Run(ctx context.Context, events <-chan auction.Event) error {
	r.logger.Info("event relay started", "channel", r.channel)
	defer r.logger.Info("event relay stopped", "channel", r.channel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			r.relay(ctx, evt)
		}
	}
}

func (r *Relay) relay(ctx context.Context, evt auction.Event) {
	frame, err := eventwire.EncodeEvent(evt)
	if err != nil {
		r.logger.ErrorContext(ctx, "encode relay frame failed", "auction_id", evt.AuctionID, "error", err)
		return
	}

	for _, channel := range []string{r.channel, r.AuctionChannel(evt.AuctionID)} {
		err := r.breaker.Do(func() error {
			publishCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()
			return r.publisher.Publish(publishCtx, channel, frame)
		})
		switch {
		case err == nil:
		case errors.Is(err, resilience.ErrCircuitOpen):
			r.logger.DebugContext(ctx, "relay skipped, circuit open", "channel", channel, "sequence", evt.Sequence)
			return
		default:
			r.logger.WarnContext(ctx, "relay publish failed",
				"channel", channel,
				"auction_id", evt.AuctionID,
				"sequence", evt.Sequence,
				"error", err,
			)
		}
	}
}

func (r *Relay) AuctionChannel(auctionID string) string {
	return r.channel + ":" + auctionID
}

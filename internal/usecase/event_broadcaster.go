package usecase

import (
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
)

const defaultSubscriberBuffer = 64

// EventPublisher receives events after an auction mutation commits.
// Publish must not block.
type EventPublisher interface {
	Publish(evt auction.Event)
}

// SubscriptionFilter limits a subscription to one auction and/or one team.
// Zero value receives every event.
type SubscriptionFilter struct {
	AuctionID string
	TeamID    string
}

func (f SubscriptionFilter) matches(evt auction.Event) bool {
	if f.AuctionID != "" && f.AuctionID != evt.AuctionID {
		return false
	}
	if f.TeamID == "" {
		return true
	}
	for _, id := range evt.TeamIDs() {
		if id == f.TeamID {
			return true
		}
	}
	return false
}

// Subscription is one observer's bounded queue. When the queue is full the
// oldest event is discarded to make room.
type Subscription struct {
	id     uint64
	filter SubscriptionFilter
	queue  chan auction.Event
	owner  *EventBroadcaster

	mu      sync.Mutex
	closed  bool
	dropped atomic.Uint64
}

func (s *Subscription) Events() <-chan auction.Event {
	return s.queue
}

// Dropped counts events discarded because the subscriber fell behind.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) Filter() SubscriptionFilter {
	return s.filter
}

// Close detaches the subscription and closes its channel. Safe to call twice.
func (s *Subscription) Close() {
	if s.owner != nil {
		s.owner.remove(s.id)
	}
	s.shutdown()
}

func (s *Subscription) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.queue)
}

func (s *Subscription) deliver(evt auction.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.queue <- evt:
			return
		default:
		}
		select {
		case <-s.queue:
			s.dropped.Add(1)
		default:
		}
	}
}

// EventBroadcaster fans events out to subscribers without ever blocking the
// publisher.
type EventBroadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	sequence atomic.Uint64
	buffer   int
	logger   *logging.Logger
}

func NewEventBroadcaster(buffer int, logger *logging.Logger) *EventBroadcaster {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EventBroadcaster{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

func (b *EventBroadcaster) Subscribe(filter SubscriptionFilter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		filter: filter,
		queue:  make(chan auction.Event, b.buffer),
		owner:  b,
	}
	if b.closed {
		sub.closed = true
		close(sub.queue)
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

func (b *EventBroadcaster) Publish(evt auction.Event) {
	evt.Sequence = b.sequence.Add(1)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.filter.matches(evt) {
			sub.deliver(evt)
		}
	}
}

// SubscriberCount returns the number of attached subscriptions.
func (b *EventBroadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription; later subscriptions start closed.
func (b *EventBroadcaster) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uint64]*Subscription)
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
	b.logger.Info("event broadcaster closed", "subscribers", len(subs))
}

func (b *EventBroadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

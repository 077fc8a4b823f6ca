package auction

import (
	"time"

	"github.com/cockroachdb/errors"
)

const (
	DefaultMinimumBid  int64 = 5
	DefaultTTL               = 24 * time.Hour
	DefaultGraceWindow       = 5 * time.Minute
)

// ExtensionRule returns the deadline after a bid accepted at now.
// Results earlier than the current deadline are ignored.
type ExtensionRule func(now, expiresAt time.Time) time.Time

// ResetExtension restarts the full timer on every bid.
func ResetExtension(ttl time.Duration) ExtensionRule {
	return func(now, _ time.Time) time.Time {
		return now.Add(ttl)
	}
}

// GraceWindowExtension pushes a deadline closer than window out to now+window.
func GraceWindowExtension(window time.Duration) ExtensionRule {
	return func(now, expiresAt time.Time) time.Time {
		if expiresAt.Sub(now) < window {
			return now.Add(window)
		}
		return expiresAt
	}
}

func NoExtension() ExtensionRule {
	return func(_, expiresAt time.Time) time.Time {
		return expiresAt
	}
}

// Policy is the set of rules an auction is created with.
type Policy struct {
	MinimumBid int64
	// TTL of zero creates auctions without a timer.
	TTL                time.Duration
	Extend             ExtensionRule
	RequireExternalBid bool
}

func DefaultPolicy() Policy {
	return Policy{
		MinimumBid: DefaultMinimumBid,
		TTL:        DefaultTTL,
		Extend:     ResetExtension(DefaultTTL),
	}
}

func (p Policy) Validate() error {
	if p.MinimumBid <= 0 {
		return errors.New("minimum bid must be > 0")
	}
	if p.TTL < 0 {
		return errors.New("auction ttl must be >= 0")
	}
	return nil
}

func (p Policy) extend(now time.Time, expiresAt *time.Time) *time.Time {
	if expiresAt == nil || p.Extend == nil {
		return expiresAt
	}
	next := p.Extend(now, *expiresAt)
	if next.Before(*expiresAt) {
		return expiresAt
	}
	return &next
}

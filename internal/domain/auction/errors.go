package auction

import (
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
)

var (
	ErrInvalidBid       = errors.New("invalid bid")
	ErrBidTooLow        = errors.Mark(errors.New("bid must exceed current bid"), ErrInvalidBid)
	ErrBelowMinimum     = errors.Mark(errors.New("starting bid below minimum"), ErrInvalidBid)
	ErrSelfOutbid       = errors.New("team already holds the leading bid")
	ErrAuctionNotActive = errors.New("auction is not active")
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrAuctionHalted    = errors.New("auction halted after invariant violation")

	// ErrInsufficientFunds is the ledger's solvency error.
	ErrInsufficientFunds = team.ErrInsufficientFunds
)

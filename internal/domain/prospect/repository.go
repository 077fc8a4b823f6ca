package prospect

import (
	"context"
	"time"
)

// ListFilter narrows List results. Zero value lists everything.
type ListFilter struct {
	OwnerTeamID   string
	UnownedOnly   bool
	PositionEqual Position
}

// ChargeFunc is called with the current tag count while the prospect is locked
// and returns the POM charged for the next tag.
type ChargeFunc func(tagsApplied int) (int64, error)

// Repository describes prospect storage needs of the auction engine.
type Repository interface {
	Create(ctx context.Context, item Prospect) error
	GetByID(ctx context.Context, prospectID string) (Prospect, bool, error)
	List(ctx context.Context, filter ListFilter) ([]Prospect, error)
	AssignOwner(ctx context.Context, prospectID, teamID string, at time.Time) error
	Release(ctx context.Context, prospectID, teamID string, at time.Time) (Prospect, error)
	UpdateStats(ctx context.Context, prospectID string, stats Stats, at time.Time) (Prospect, error)
	ApplyTag(ctx context.Context, prospectID, teamID string, at time.Time, charge ChargeFunc) (Prospect, int64, error)
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
)

type prospectEntry struct {
	mu   sync.Mutex
	item prospect.Prospect
}

type ProspectRepository struct {
	mu      sync.RWMutex
	entries map[string]*prospectEntry
	order   []string
}

func NewProspectRepository(items []prospect.Prospect) *ProspectRepository {
	r := &ProspectRepository{entries: make(map[string]*prospectEntry, len(items))}
	for _, item := range items {
		if _, ok := r.entries[item.ID]; ok {
			continue
		}
		r.entries[item.ID] = &prospectEntry{item: item.Clone()}
		r.order = append(r.order, item.ID)
	}
	return r
}

func (r *ProspectRepository) Create(_ context.Context, item prospect.Prospect) error {
	if err := item.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[item.ID]; ok {
		return errors.Newf("prospect %s already exists", item.ID)
	}
	r.entries[item.ID] = &prospectEntry{item: item.Clone()}
	r.order = append(r.order, item.ID)
	return nil
}

func (r *ProspectRepository) GetByID(_ context.Context, prospectID string) (prospect.Prospect, bool, error) {
	entry, ok := r.entry(prospectID)
	if !ok {
		return prospect.Prospect{}, false, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.item.Clone(), true, nil
}

func (r *ProspectRepository) List(_ context.Context, filter prospect.ListFilter) ([]prospect.Prospect, error) {
	r.mu.RLock()
	entries := make([]*prospectEntry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	r.mu.RUnlock()

	out := make([]prospect.Prospect, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		item := entry.item.Clone()
		entry.mu.Unlock()

		if filter.OwnerTeamID != "" && item.OwnerTeamID != filter.OwnerTeamID {
			continue
		}
		if filter.UnownedOnly && item.Owned() {
			continue
		}
		if filter.PositionEqual != "" && item.Position != filter.PositionEqual {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *ProspectRepository) AssignOwner(_ context.Context, prospectID, teamID string, at time.Time) error {
	entry, ok := r.entry(prospectID)
	if !ok {
		return errors.Wrapf(prospect.ErrProspectNotFound, "prospect %s", prospectID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.item.Owned() && entry.item.OwnerTeamID != teamID {
		return errors.Wrapf(prospect.ErrAlreadyOwned, "prospect %s owned by %s", prospectID, entry.item.OwnerTeamID)
	}
	acquiredAt := at
	entry.item.OwnerTeamID = teamID
	entry.item.AcquiredAt = &acquiredAt
	entry.item.UpdatedAt = at
	return nil
}

func (r *ProspectRepository) Release(_ context.Context, prospectID, teamID string, at time.Time) (prospect.Prospect, error) {
	entry, ok := r.entry(prospectID)
	if !ok {
		return prospect.Prospect{}, errors.Wrapf(prospect.ErrProspectNotFound, "prospect %s", prospectID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.item.OwnerTeamID != teamID {
		return prospect.Prospect{}, errors.Wrapf(prospect.ErrNotOwner, "prospect %s, team %s", prospectID, teamID)
	}
	entry.item.OwnerTeamID = ""
	entry.item.AcquiredAt = nil
	entry.item.UpdatedAt = at
	return entry.item.Clone(), nil
}

func (r *ProspectRepository) UpdateStats(_ context.Context, prospectID string, stats prospect.Stats, at time.Time) (prospect.Prospect, error) {
	entry, ok := r.entry(prospectID)
	if !ok {
		return prospect.Prospect{}, errors.Wrapf(prospect.ErrProspectNotFound, "prospect %s", prospectID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.item.Stats = stats
	entry.item.UpdatedAt = at
	return entry.item.Clone(), nil
}

// ApplyTag charges the owning team through charge and increments the tag count
// while the prospect is locked, so concurrent tags are priced one after another.
func (r *ProspectRepository) ApplyTag(_ context.Context, prospectID, teamID string, at time.Time, charge prospect.ChargeFunc) (prospect.Prospect, int64, error) {
	entry, ok := r.entry(prospectID)
	if !ok {
		return prospect.Prospect{}, 0, errors.Wrapf(prospect.ErrProspectNotFound, "prospect %s", prospectID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.item.OwnerTeamID != teamID {
		return prospect.Prospect{}, 0, errors.Wrapf(prospect.ErrNotOwner, "prospect %s, team %s", prospectID, teamID)
	}

	cost, err := charge(entry.item.TagsApplied)
	if err != nil {
		return prospect.Prospect{}, 0, err
	}

	taggedAt := at
	entry.item.TagsApplied++
	entry.item.LastTaggedAt = &taggedAt
	entry.item.LastTaggedBy = teamID
	entry.item.UpdatedAt = at
	return entry.item.Clone(), cost, nil
}

func (r *ProspectRepository) entry(prospectID string) (*prospectEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[prospectID]
	return entry, ok
}

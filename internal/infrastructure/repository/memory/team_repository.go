package memory

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
)

type teamAccount struct {
	mu   sync.Mutex
	team team.Team
}

// TeamRepository is the in-memory ledger. Each team has its own lock, so
// debits on different teams never contend.
type TeamRepository struct {
	mu       sync.RWMutex
	accounts map[string]*teamAccount
	order    []string
	now      func() time.Time
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	r := &TeamRepository{
		accounts: make(map[string]*teamAccount, len(teams)),
		now:      time.Now,
	}
	for _, item := range teams {
		if _, ok := r.accounts[item.ID]; ok || strings.TrimSpace(item.ID) == "" {
			continue
		}
		r.accounts[item.ID] = &teamAccount{team: item}
		r.order = append(r.order, item.ID)
	}
	return r
}

func (r *TeamRepository) Register(_ context.Context, item team.Team) error {
	if err := item.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[item.ID]; ok {
		return errors.Wrapf(team.ErrTeamExists, "team %s", item.ID)
	}
	r.accounts[item.ID] = &teamAccount{team: item}
	r.order = append(r.order, item.ID)
	return nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	acct, ok := r.account(teamID)
	if !ok {
		return team.Team{}, false, nil
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.team, true, nil
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	accounts := make([]*teamAccount, 0, len(r.order))
	for _, id := range r.order {
		accounts = append(accounts, r.accounts[id])
	}
	r.mu.RUnlock()

	out := make([]team.Team, 0, len(accounts))
	for _, acct := range accounts {
		acct.mu.Lock()
		out = append(out, acct.team)
		acct.mu.Unlock()
	}
	return out, nil
}

func (r *TeamRepository) Balance(_ context.Context, teamID string) (int64, error) {
	acct, ok := r.account(teamID)
	if !ok {
		return 0, errors.Wrapf(team.ErrTeamNotFound, "team %s", teamID)
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.team.PomBalance, nil
}

// Debit removes amount from the team's balance and returns the new balance.
func (r *TeamRepository) Debit(_ context.Context, teamID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errors.Wrapf(team.ErrInvalidAmount, "debit %d", amount)
	}
	acct, ok := r.account(teamID)
	if !ok {
		return 0, errors.Wrapf(team.ErrTeamNotFound, "team %s", teamID)
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	balance := acct.team.PomBalance
	if balance < amount {
		return balance, errors.Wrapf(team.ErrInsufficientFunds, "team %s has %d, needs %d", teamID, balance, amount)
	}
	next := balance - amount
	if next < 0 {
		return balance, errors.AssertionFailedf("team %s balance would become %d", teamID, next)
	}
	acct.team.PomBalance = next
	acct.team.UpdatedAt = r.now()
	return next, nil
}

// Credit adds amount to the team's balance and returns the new balance.
func (r *TeamRepository) Credit(_ context.Context, teamID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errors.Wrapf(team.ErrInvalidAmount, "credit %d", amount)
	}
	acct, ok := r.account(teamID)
	if !ok {
		return 0, errors.Wrapf(team.ErrTeamNotFound, "team %s", teamID)
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	if acct.team.PomBalance > math.MaxInt64-amount {
		return acct.team.PomBalance, errors.Newf("credit %d overflows balance of team %s", amount, teamID)
	}
	acct.team.PomBalance += amount
	acct.team.UpdatedAt = r.now()
	return acct.team.PomBalance, nil
}

func (r *TeamRepository) account(teamID string) (*teamAccount, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.accounts[teamID]
	return acct, ok
}

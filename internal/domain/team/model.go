package team

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultStartingBalance is the POM a newly registered team receives.
const DefaultStartingBalance int64 = 100

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamExists        = errors.New("team already exists")
)

// Team is a participant holding a POM balance.
type Team struct {
	ID         string
	Name       string
	PomBalance int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("team id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("team name is required")
	}
	if t.PomBalance < 0 {
		return errors.Newf("team %s balance must not be negative", t.ID)
	}
	return nil
}

// CanAfford reports whether the balance covers amount.
func (t Team) CanAfford(amount int64) bool {
	return t.PomBalance >= amount
}

package team

import "context"

// Ledger owns team balances. Debit and Credit are atomic per team.
type Ledger interface {
	Debit(ctx context.Context, teamID string, amount int64) (int64, error)
	Credit(ctx context.Context, teamID string, amount int64) (int64, error)
	Balance(ctx context.Context, teamID string) (int64, error)
}

// Repository describes team registration and lookup.
type Repository interface {
	Ledger
	Register(ctx context.Context, item Team) error
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	List(ctx context.Context) ([]Team, error)
}

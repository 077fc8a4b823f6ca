package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
)

// BootstrapTeams inserts the seed teams when the teams table is empty.
// Existing rows are never touched.
func BootstrapTeams(ctx context.Context, db *sqlx.DB, teams []team.Team) (int, error) {
	if len(teams) == 0 {
		return 0, nil
	}

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM teams`); err != nil {
		return 0, errors.Wrap(err, "count teams for bootstrap seed")
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin seed tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	inserted := 0
	for _, item := range teams {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO teams (id, name, pom_balance, created_at, updated_at)
VALUES (:id, :name, :pom_balance, :created_at, :updated_at)
ON CONFLICT (id) DO NOTHING`, teamToRow(item))
		if err != nil {
			return 0, errors.Wrapf(err, "bind seed team %s query", item.ID)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		res, err := tx.ExecContext(ctx, sqlQuery, args...)
		if err != nil {
			return 0, errors.Wrapf(err, "seed team %s", item.ID)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit seed tx")
	}
	return inserted, nil
}

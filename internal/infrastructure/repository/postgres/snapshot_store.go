package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	qb "github.com/riskibarqy/prospect-auction/internal/platform/querybuilder"
)

const (
	teamsTable       = "teams"
	prospectsTable   = "prospects"
	auctionsTable    = "auctions"
	auctionBidsTable = "auction_bids"

	auctionVersionGuard  = "auctions.version < EXCLUDED.version"
	teamUpdatedGuard     = "teams.updated_at <= EXCLUDED.updated_at"
	prospectUpdatedGuard = "prospects.updated_at <= EXCLUDED.updated_at"
)

var (
	teamColumns = []string{"id", "name", "pom_balance", "created_at", "updated_at"}

	prospectColumns = []string{
		"id", "name", "position", "organization", "level", "eta", "date_of_birth",
		"at_bats", "innings_pitched", "tags_applied", "owner_team_id", "created_by_team_id",
		"acquired_at", "last_tagged_at", "last_tagged_by", "created_at", "updated_at",
	}

	auctionColumns = []string{
		"id", "prospect_id", "prospect_name", "prospect_position", "nominator_id",
		"starting_bid", "current_bid", "current_bidder_id", "status", "cancel_reason",
		"created_at", "last_bid_time", "expires_at", "completed_at", "version",
	}

	auctionBidColumns = []string{"auction_id", "seq", "team_id", "amount", "placed_at"}
)

// SnapshotStore archives engine state in Postgres. Every save is an upsert
// so replays and out-of-order deliveries converge on the newest row.
type SnapshotStore struct {
	db *sqlx.DB
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) SaveAuction(ctx context.Context, snap auction.Snapshot) error {
	query, args, err := qb.UpsertModel(auctionsTable, auctionToRow(snap), []string{"id"}, auctionVersionGuard)
	if err != nil {
		return errors.Wrap(err, "build upsert auction query")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin save auction tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "upsert auction id=%s", snap.ID)
	}

	bids := bidsToRows(snap)
	if len(bids) > 0 {
		insert := qb.InsertInto(auctionBidsTable).Columns(auctionBidColumns...)
		for _, b := range bids {
			insert.Values(b.AuctionID, b.Seq, b.TeamID, b.Amount, b.PlacedAt)
		}
		bidQuery, bidArgs, err := insert.OnConflict("auction_id", "seq").ToSQL()
		if err != nil {
			return errors.Wrap(err, "build insert auction bids query")
		}
		if _, err := tx.ExecContext(ctx, bidQuery, bidArgs...); err != nil {
			return errors.Wrapf(err, "insert auction bids id=%s", snap.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit save auction id=%s", snap.ID)
	}
	return nil
}

func (s *SnapshotStore) SaveTeam(ctx context.Context, item team.Team) error {
	query, args, err := qb.UpsertModel(teamsTable, teamToRow(item), []string{"id"}, teamUpdatedGuard)
	if err != nil {
		return errors.Wrap(err, "build upsert team query")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "upsert team id=%s", item.ID)
	}
	return nil
}

func (s *SnapshotStore) SaveTeamBalance(ctx context.Context, teamID string, balance int64, at time.Time) error {
	query, args, err := qb.Update(teamsTable).
		Set("pom_balance", balance).
		Set("updated_at", at.UTC()).
		Where(qb.Eq("id", teamID), qb.Expr("updated_at <= ?", at.UTC())).
		ToSQL()
	if err != nil {
		return errors.Wrap(err, "build update team balance query")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "update team balance id=%s", teamID)
	}
	return nil
}

func (s *SnapshotStore) SaveProspect(ctx context.Context, item prospect.Prospect) error {
	query, args, err := qb.UpsertModel(prospectsTable, prospectToRow(item), []string{"id"}, prospectUpdatedGuard)
	if err != nil {
		return errors.Wrap(err, "build upsert prospect query")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "upsert prospect id=%s", item.ID)
	}
	return nil
}

// SaveProspectOwner records an ownership change. An empty teamID clears it.
func (s *SnapshotStore) SaveProspectOwner(ctx context.Context, prospectID, teamID string, at time.Time) error {
	owner := stringToNull(teamID)
	acquired := timePtrToNull(&at)
	if !owner.Valid {
		acquired = timePtrToNull(nil)
	}

	query, args, err := qb.Update(prospectsTable).
		Set("owner_team_id", owner).
		Set("acquired_at", acquired).
		Set("updated_at", at.UTC()).
		Where(qb.Eq("id", prospectID), qb.Expr("updated_at <= ?", at.UTC())).
		ToSQL()
	if err != nil {
		return errors.Wrap(err, "build update prospect owner query")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "update prospect owner id=%s", prospectID)
	}
	return nil
}

func (s *SnapshotStore) LoadTeams(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select(teamColumns...).From(teamsTable).OrderBy("id ASC").ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build select teams query")
	}

	var rows []teamTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select teams")
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}
	return out, nil
}

func (s *SnapshotStore) LoadProspects(ctx context.Context) ([]prospect.Prospect, error) {
	query, args, err := qb.Select(prospectColumns...).From(prospectsTable).OrderBy("id ASC").ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build select prospects query")
	}

	var rows []prospectTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select prospects")
	}

	out := make([]prospect.Prospect, 0, len(rows))
	for _, row := range rows {
		out = append(out, prospectFromRow(row))
	}
	return out, nil
}

// GetAuction reads one archived auction with its bid history.
func (s *SnapshotStore) GetAuction(ctx context.Context, auctionID string) (auction.Snapshot, bool, error) {
	query, args, err := qb.Select(auctionColumns...).From(auctionsTable).Where(qb.Eq("id", auctionID)).ToSQL()
	if err != nil {
		return auction.Snapshot{}, false, errors.Wrap(err, "build select auction query")
	}

	var row auctionTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return auction.Snapshot{}, false, nil
		}
		return auction.Snapshot{}, false, errors.Wrapf(err, "select auction id=%s", auctionID)
	}

	bidQuery, bidArgs, err := qb.Select(auctionBidColumns...).
		From(auctionBidsTable).
		Where(qb.Eq("auction_id", auctionID)).
		OrderBy("seq ASC").
		ToSQL()
	if err != nil {
		return auction.Snapshot{}, false, errors.Wrap(err, "build select auction bids query")
	}

	var bids []auctionBidTableModel
	if err := s.db.SelectContext(ctx, &bids, bidQuery, bidArgs...); err != nil {
		return auction.Snapshot{}, false, errors.Wrapf(err, "select auction bids id=%s", auctionID)
	}
	return auctionFromRows(row, bids), true, nil
}

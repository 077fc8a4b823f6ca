package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/shopspring/decimal"
)

type teamTableModel struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	PomBalance int64     `db:"pom_balance"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type prospectTableModel struct {
	ID              string          `db:"id"`
	Name            string          `db:"name"`
	Position        string          `db:"position"`
	Organization    string          `db:"organization"`
	Level           string          `db:"level"`
	ETA             int             `db:"eta"`
	DateOfBirth     sql.NullTime    `db:"date_of_birth"`
	AtBats          int64           `db:"at_bats"`
	InningsPitched  decimal.Decimal `db:"innings_pitched"`
	TagsApplied     int             `db:"tags_applied"`
	OwnerTeamID     sql.NullString  `db:"owner_team_id"`
	CreatedByTeamID sql.NullString  `db:"created_by_team_id"`
	AcquiredAt      sql.NullTime    `db:"acquired_at"`
	LastTaggedAt    sql.NullTime    `db:"last_tagged_at"`
	LastTaggedBy    sql.NullString  `db:"last_tagged_by"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

type auctionTableModel struct {
	ID               string         `db:"id"`
	ProspectID       string         `db:"prospect_id"`
	ProspectName     string         `db:"prospect_name"`
	ProspectPosition string         `db:"prospect_position"`
	NominatorID      string         `db:"nominator_id"`
	StartingBid      int64          `db:"starting_bid"`
	CurrentBid       int64          `db:"current_bid"`
	CurrentBidderID  string         `db:"current_bidder_id"`
	Status           string         `db:"status"`
	CancelReason     sql.NullString `db:"cancel_reason"`
	CreatedAt        time.Time      `db:"created_at"`
	LastBidTime      time.Time      `db:"last_bid_time"`
	ExpiresAt        sql.NullTime   `db:"expires_at"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
	Version          int64          `db:"version"`
}

type auctionBidTableModel struct {
	AuctionID string    `db:"auction_id"`
	Seq       int       `db:"seq"`
	TeamID    string    `db:"team_id"`
	Amount    int64     `db:"amount"`
	PlacedAt  time.Time `db:"placed_at"`
}

func teamToRow(item team.Team) teamTableModel {
	return teamTableModel{
		ID:         item.ID,
		Name:       item.Name,
		PomBalance: item.PomBalance,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:         row.ID,
		Name:       row.Name,
		PomBalance: row.PomBalance,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func prospectToRow(item prospect.Prospect) prospectTableModel {
	return prospectTableModel{
		ID:              item.ID,
		Name:            item.Name,
		Position:        string(item.Position),
		Organization:    item.Organization,
		Level:           string(item.Level),
		ETA:             item.ETA,
		DateOfBirth:     timePtrToNull(item.DateOfBirth),
		AtBats:          item.Stats.AtBats,
		InningsPitched:  item.Stats.InningsPitched,
		TagsApplied:     item.TagsApplied,
		OwnerTeamID:     stringToNull(item.OwnerTeamID),
		CreatedByTeamID: stringToNull(item.CreatedByTeamID),
		AcquiredAt:      timePtrToNull(item.AcquiredAt),
		LastTaggedAt:    timePtrToNull(item.LastTaggedAt),
		LastTaggedBy:    stringToNull(item.LastTaggedBy),
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

func prospectFromRow(row prospectTableModel) prospect.Prospect {
	return prospect.Prospect{
		ID:           row.ID,
		Name:         row.Name,
		Position:     prospect.Position(row.Position),
		Organization: row.Organization,
		Level:        prospect.Level(row.Level),
		ETA:          row.ETA,
		DateOfBirth:  nullToTimePtr(row.DateOfBirth),
		Stats: prospect.Stats{
			AtBats:         row.AtBats,
			InningsPitched: row.InningsPitched,
		},
		TagsApplied:     row.TagsApplied,
		OwnerTeamID:     row.OwnerTeamID.String,
		CreatedByTeamID: row.CreatedByTeamID.String,
		AcquiredAt:      nullToTimePtr(row.AcquiredAt),
		LastTaggedAt:    nullToTimePtr(row.LastTaggedAt),
		LastTaggedBy:    row.LastTaggedBy.String,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func auctionToRow(snap auction.Snapshot) auctionTableModel {
	return auctionTableModel{
		ID:               snap.ID,
		ProspectID:       snap.Prospect.ID,
		ProspectName:     snap.Prospect.Name,
		ProspectPosition: string(snap.Prospect.Position),
		NominatorID:      snap.NominatorID,
		StartingBid:      snap.StartingBid,
		CurrentBid:       snap.CurrentBid,
		CurrentBidderID:  snap.CurrentBidderID,
		Status:           string(snap.Status),
		CancelReason:     stringToNull(string(snap.CancelReason)),
		CreatedAt:        snap.CreatedAt,
		LastBidTime:      snap.LastBidTime,
		ExpiresAt:        timePtrToNull(snap.ExpiresAt),
		CompletedAt:      timePtrToNull(snap.CompletedAt),
		Version:          snap.Version,
	}
}

// auctionFromRows rebuilds a snapshot; bids must be ordered by seq.
func auctionFromRows(row auctionTableModel, bids []auctionBidTableModel) auction.Snapshot {
	history := make([]auction.BidEvent, 0, len(bids))
	for _, b := range bids {
		history = append(history, auction.BidEvent{TeamID: b.TeamID, Amount: b.Amount, PlacedAt: b.PlacedAt})
	}

	return auction.Snapshot{
		ID: row.ID,
		Prospect: auction.ProspectRef{
			ID:       row.ProspectID,
			Name:     row.ProspectName,
			Position: prospect.Position(row.ProspectPosition),
		},
		NominatorID:     row.NominatorID,
		StartingBid:     row.StartingBid,
		CurrentBid:      row.CurrentBid,
		CurrentBidderID: row.CurrentBidderID,
		Status:          auction.Status(row.Status),
		CancelReason:    auction.CancelReason(row.CancelReason.String),
		CreatedAt:       row.CreatedAt,
		LastBidTime:     row.LastBidTime,
		ExpiresAt:       nullToTimePtr(row.ExpiresAt),
		CompletedAt:     nullToTimePtr(row.CompletedAt),
		History:         history,
		Version:         row.Version,
	}
}

func bidsToRows(snap auction.Snapshot) []auctionBidTableModel {
	out := make([]auctionBidTableModel, 0, len(snap.History))
	for i, b := range snap.History {
		out = append(out, auctionBidTableModel{
			AuctionID: snap.ID,
			Seq:       i + 1,
			TeamID:    b.TeamID,
			Amount:    b.Amount,
			PlacedAt:  b.PlacedAt,
		})
	}
	return out
}

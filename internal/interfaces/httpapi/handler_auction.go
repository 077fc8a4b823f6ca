package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/interfaces/eventwire"
	"github.com/riskibarqy/prospect-auction/internal/usecase"
	"github.com/shopspring/decimal"
)

type nominateRequest struct {
	ProspectID  string              `json:"prospect_id" validate:"required_without=Prospect,excluded_with=Prospect"`
	Prospect    *newProspectRequest `json:"prospect" validate:"omitempty"`
	StartingBid int64               `json:"starting_bid" validate:"gte=0"`
}

type newProspectRequest struct {
	Name           string          `json:"name" validate:"required,max=120"`
	Position       string          `json:"position" validate:"required,max=4"`
	Organization   string          `json:"organization" validate:"max=80"`
	Level          string          `json:"level" validate:"max=3"`
	ETA            int             `json:"eta" validate:"omitempty,gte=1900,lte=2200"`
	DateOfBirth    string          `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	AtBats         int64           `json:"at_bats" validate:"gte=0"`
	InningsPitched decimal.Decimal `json:"innings_pitched"`
}

type placeBidRequest struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

type settlementDTO struct {
	Auction eventwire.Auction `json:"auction"`
	Outcome eventwire.Outcome `json:"outcome"`
}

func (h *Handler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAuctions")
	defer span.End()

	status := auction.Status(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	switch status {
	case "":
		status = auction.StatusActive
	case "all":
		status = ""
	}

	items, err := h.auctionService.ListByStatus(ctx, status)
	if err != nil {
		h.logger.WarnContext(ctx, "list auctions failed", "status", status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventwire.FromSnapshots(items, h.now()))
}

func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAuction")
	defer span.End()

	auctionID := strings.TrimSpace(r.PathValue("auctionID"))
	item, err := h.auctionService.Get(ctx, auctionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get auction failed", "auction_id", auctionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventwire.FromSnapshot(item, h.now()))
}

func (h *Handler) NominateAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.NominateAuction")
	defer span.End()

	teamID, err := h.requireTeamID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req nominateRequest
	if err := h.decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.NominateInput{
		NominatorID: teamID,
		ProspectID:  req.ProspectID,
		StartingBid: req.StartingBid,
	}
	if req.Prospect != nil {
		details, err := req.Prospect.toInput()
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		input.Prospect = &details
	}

	item, err := h.auctionService.Nominate(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "nominate auction failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, eventwire.FromSnapshot(item, h.now()))
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlaceBid")
	defer span.End()

	teamID, err := h.requireTeamID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	auctionID := strings.TrimSpace(r.PathValue("auctionID"))
	var req placeBidRequest
	if err := h.decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.auctionService.Bid(ctx, auctionID, teamID, req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "place bid failed",
			"auction_id", auctionID,
			"team_id", teamID,
			"amount", req.Amount,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventwire.FromSnapshot(item, h.now()))
}

func (h *Handler) ListMyAuctions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyAuctions")
	defer span.End()

	teamID, err := h.requireTeamID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventwire.FromSnapshots(h.auctionService.ListNominatedBy(ctx, teamID), h.now()))
}

func (h *Handler) ListMyWinningAuctions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyWinningAuctions")
	defer span.End()

	teamID, err := h.requireTeamID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventwire.FromSnapshots(h.auctionService.ListLeading(ctx, teamID), h.now()))
}

func (r newProspectRequest) toInput() (usecase.NewProspectInput, error) {
	out := usecase.NewProspectInput{
		Name:           r.Name,
		Position:       prospect.Position(r.Position),
		Organization:   r.Organization,
		Level:          prospect.Level(r.Level),
		ETA:            r.ETA,
		AtBats:         r.AtBats,
		InningsPitched: r.InningsPitched,
	}
	if r.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, r.DateOfBirth)
		if err != nil {
			return usecase.NewProspectInput{}, errors.Wrapf(usecase.ErrInvalidInput, "invalid date_of_birth %q", r.DateOfBirth)
		}
		out.DateOfBirth = &dob
	}
	if out.InningsPitched.IsNegative() {
		return usecase.NewProspectInput{}, errors.Wrap(usecase.ErrInvalidInput, "innings_pitched must not be negative")
	}
	return out, nil
}

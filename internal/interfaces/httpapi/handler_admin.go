package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/interfaces/eventwire"
	"github.com/riskibarqy/prospect-auction/internal/usecase"
)

// CloseAuction settles an auction immediately. Untimed auctions can only end
// this way.
func (h *Handler) CloseAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CloseAuction")
	defer span.End()

	auctionID := strings.TrimSpace(r.PathValue("auctionID"))
	item, outcome, err := h.auctionService.Close(ctx, auctionID)
	if err != nil {
		h.logger.WarnContext(ctx, "close auction failed", "auction_id", auctionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settlementDTO{
		Auction: eventwire.FromSnapshot(item, h.now()),
		Outcome: eventwire.FromOutcome(outcome),
	})
}

func (h *Handler) CancelAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelAuction")
	defer span.End()

	auctionID := strings.TrimSpace(r.PathValue("auctionID"))
	item, err := h.auctionService.Cancel(ctx, auctionID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel auction failed", "auction_id", auctionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventwire.FromSnapshot(item, h.now()))
}

func (h *Handler) SweepAuctions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SweepAuctions")
	defer span.End()

	dryRun := false
	if raw := strings.TrimSpace(r.URL.Query().Get("dry_run")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(ctx, w, errors.Wrapf(usecase.ErrInvalidInput, "invalid dry_run flag %q", raw))
			return
		}
		dryRun = parsed
	}

	result, err := h.scheduler.Sweep(ctx, dryRun)
	if err != nil {
		h.logger.ErrorContext(ctx, "sweep auctions failed", "dry_run", dryRun, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

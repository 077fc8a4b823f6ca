package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/prospect"
	"github.com/riskibarqy/prospect-auction/internal/usecase"
	"github.com/shopspring/decimal"
)

type updateStatsRequest struct {
	AtBats         int64           `json:"at_bats" validate:"gte=0"`
	InningsPitched decimal.Decimal `json:"innings_pitched"`
}

func (h *Handler) ListProspects(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListProspects")
	defer span.End()

	query := r.URL.Query()
	filter := prospect.ListFilter{
		OwnerTeamID:   strings.TrimSpace(query.Get("owner_team_id")),
		PositionEqual: prospect.Position(strings.ToUpper(strings.TrimSpace(query.Get("position")))),
	}
	if raw := strings.TrimSpace(query.Get("unowned")); raw != "" {
		unowned, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(ctx, w, errors.Wrapf(usecase.ErrInvalidInput, "invalid unowned flag %q", raw))
			return
		}
		filter.UnownedOnly = unowned
	}

	items, err := h.prospectService.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list prospects failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, prospectViewsToDTO(items))
}

func (h *Handler) GetProspect(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProspect")
	defer span.End()

	prospectID := strings.TrimSpace(r.PathValue("prospectID"))
	item, err := h.prospectService.Get(ctx, prospectID)
	if err != nil {
		h.logger.WarnContext(ctx, "get prospect failed", "prospect_id", prospectID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, prospectViewToDTO(item))
}

func (h *Handler) TagProspect(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TagProspect")
	defer span.End()

	teamID, err := h.requireTeamID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	prospectID := strings.TrimSpace(r.PathValue("prospectID"))
	result, err := h.prospectService.Tag(ctx, teamID, prospectID)
	if err != nil {
		h.logger.WarnContext(ctx, "tag prospect failed", "prospect_id", prospectID, "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	view := usecase.ProspectView{Prospect: result.Prospect, Verdict: result.Verdict}
	view.Age, view.HasAge = result.Prospect.Age(h.now())
	writeSuccess(ctx, w, http.StatusOK, tagResultDTO{
		Prospect:     prospectViewToDTO(view),
		NewThreshold: result.Verdict.Threshold,
		TagsApplied:  result.Prospect.TagsApplied,
		CostCharged:  result.CostCharged,
		NewBalance:   result.NewBalance,
	})
}

func (h *Handler) ReleaseProspect(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReleaseProspect")
	defer span.End()

	teamID, err := h.requireTeamID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	prospectID := strings.TrimSpace(r.PathValue("prospectID"))
	item, err := h.prospectService.Release(ctx, teamID, prospectID)
	if err != nil {
		h.logger.WarnContext(ctx, "release prospect failed", "prospect_id", prospectID, "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, prospectViewToDTO(item))
}

func (h *Handler) UpdateProspectStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateProspectStats")
	defer span.End()

	prospectID := strings.TrimSpace(r.PathValue("prospectID"))
	var req updateStatsRequest
	if err := h.decodeJSON(r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.prospectService.UpdateStats(ctx, prospectID, prospect.Stats{
		AtBats:         req.AtBats,
		InningsPitched: req.InningsPitched,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update prospect stats failed", "prospect_id", prospectID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, prospectViewToDTO(item))
}

package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/riskibarqy/prospect-auction/internal/usecase"
)

type Handler struct {
	auctionService  *usecase.AuctionService
	teamService     *usecase.TeamService
	prospectService *usecase.ProspectService
	scheduler       *usecase.ExpirationScheduler
	events          *usecase.EventBroadcaster
	logger          *logging.Logger
	validator       *validator.Validate
	upgrader        websocket.Upgrader
	now             func() time.Time
}

func NewHandler(
	auctionService *usecase.AuctionService,
	teamService *usecase.TeamService,
	prospectService *usecase.ProspectService,
	scheduler *usecase.ExpirationScheduler,
	events *usecase.EventBroadcaster,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		auctionService:  auctionService,
		teamService:     teamService,
		prospectService: prospectService,
		scheduler:       scheduler,
		events:          events,
		logger:          logger,
		validator:       validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		now: time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": h.events.SubscriberCount(),
	})
}

const maxRequestBodyBytes = 1 << 20

// decodeJSON rejects unknown fields. An empty body leaves dst untouched when
// allowEmpty is set.
func (h *Handler) decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return errors.Wrapf(usecase.ErrInvalidInput, "read request body: %v", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if allowEmpty {
			return nil
		}
		return errors.Wrap(usecase.ErrInvalidInput, "request body is required")
	}

	decoder := sonic.ConfigDefault.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.Wrapf(usecase.ErrInvalidInput, "invalid JSON payload: %v", err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return errors.Wrapf(usecase.ErrInvalidInput, "validation failed: %v", err)
	}

	return nil
}

func (h *Handler) requireTeamID(ctx context.Context) (string, error) {
	teamID, ok := teamIDFromContext(ctx)
	if !ok {
		return "", errors.Wrap(usecase.ErrUnauthorized, "team is missing from request context")
	}
	return teamID, nil
}

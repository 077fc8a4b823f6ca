package httpapi

import (
	"net/http"

	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	AdminToken         string
	BidRateLimit       float64
	BidRateBurst       int
}

func NewRouter(
	handler *Handler,
	teams TeamResolver,
	logger *logging.Logger,
	cfg RouterConfig,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	allowList := newOriginAllowList(cfg.CORSAllowedOrigins)
	handler.upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowList.allows(origin)
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerPublicRoutes(mux, handler)
	registerTeamRoutes(mux, handler, teams, NewTeamRateLimiter(cfg.BidRateLimit, cfg.BidRateBurst))
	registerAdminRoutes(mux, handler, cfg.AdminToken)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

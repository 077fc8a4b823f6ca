package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/team"
	"github.com/riskibarqy/prospect-auction/internal/platform/cache"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/riskibarqy/prospect-auction/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	teamIDHeader     = "X-Team-ID"
	adminTokenHeader = "X-Admin-Token"
)

// TeamResolver confirms that the caller's team exists.
type TeamResolver interface {
	Get(ctx context.Context, teamID string) (team.Team, error)
}

// RequireTeam trusts the X-Team-ID header set by the upstream auth layer and
// rejects ids that do not resolve to a registered team.
func RequireTeam(resolver TeamResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequireTeam")
		defer span.End()

		teamID := strings.TrimSpace(r.Header.Get(teamIDHeader))
		if teamID == "" {
			writeError(ctx, w, errors.Wrap(usecase.ErrUnauthorized, "missing X-Team-ID header"))
			return
		}

		if _, err := resolver.Get(ctx, teamID); err != nil {
			if errors.Is(err, team.ErrTeamNotFound) {
				writeError(ctx, w, errors.Wrapf(usecase.ErrUnauthorized, "unknown team %q", teamID))
				return
			}
			writeError(ctx, w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withTeamID(ctx, teamID)))
	})
}

func RequireAdminToken(token string, next http.Handler) http.Handler {
	expectedToken := []byte(strings.TrimSpace(token))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequireAdminToken")
		defer span.End()

		if len(expectedToken) == 0 {
			writeError(ctx, w, errors.Wrap(usecase.ErrDependencyUnavailable, "admin token is not configured"))
			return
		}

		providedToken := []byte(strings.TrimSpace(r.Header.Get(adminTokenHeader)))
		if len(providedToken) == 0 || subtle.ConstantTimeCompare(providedToken, expectedToken) != 1 {
			writeError(ctx, w, errors.Wrap(usecase.ErrUnauthorized, "invalid admin token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// idleLimiterTTL bounds how long a quiet team's bucket is kept.
const idleLimiterTTL = 10 * time.Minute

// TeamRateLimiter hands out one token bucket per team.
type TeamRateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *cache.Store[*rate.Limiter]
}

// NewTeamRateLimiter returns nil when perSecond is not positive, which
// disables limiting.
func NewTeamRateLimiter(perSecond float64, burst int) *TeamRateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &TeamRateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: cache.NewStore[*rate.Limiter](idleLimiterTTL),
	}
}

func (l *TeamRateLimiter) Allow(teamID string) bool {
	if l == nil {
		return true
	}

	limiter := l.limiters.GetOrCreate(teamID, func() *rate.Limiter {
		return rate.NewLimiter(l.limit, l.burst)
	})
	return limiter.Allow()
}

// RateLimitByTeam must run inside RequireTeam.
func RateLimitByTeam(limiter *TeamRateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RateLimitByTeam")
		defer span.End()

		teamID, _ := teamIDFromContext(ctx)
		if !limiter.Allow(teamID) {
			w.Header().Set("Retry-After", "1")
			writeError(ctx, w, errors.Wrapf(usecase.ErrRateLimited, "team %s is bidding too fast", teamID))
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestLogging(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RequestLogging")
		defer span.End()

		started := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		spanContext := trace.SpanContextFromContext(ctx)
		traceID := ""
		spanID := ""
		if spanContext.IsValid() {
			traceID = spanContext.TraceID().String()
			spanID = spanContext.SpanID().String()
		}

		logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"team_id", r.Header.Get(teamIDHeader),
			"duration_ms", time.Since(started).Milliseconds(),
			"trace_id", traceID,
			"span_id", spanID,
		)
	})
}

func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "prospect-auction-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

func shouldTraceRequest(path string) bool {
	normalized := strings.ToLower(strings.TrimSpace(path))
	switch normalized {
	case "/healthz", "/health", "/livez", "/readyz", "/v1/stream":
		return false
	default:
		return true
	}
}

// originAllowList is shared by CORS and the WebSocket origin check.
type originAllowList struct {
	allowAll bool
	origins  map[string]struct{}
}

func newOriginAllowList(allowedOrigins []string) originAllowList {
	out := originAllowList{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		candidate := strings.TrimSpace(origin)
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			out.allowAll = true
			continue
		}
		out.origins[candidate] = struct{}{}
	}
	return out
}

func (l originAllowList) allows(origin string) bool {
	if l.allowAll {
		return true
	}
	_, ok := l.origins[origin]
	return ok
}

func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowList := newOriginAllowList(allowedOrigins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.CORS")
		defer span.End()

		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if allowList.allows(origin) {
			if allowList.allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Accept,X-Team-ID,X-Admin-Token")
			w.Header().Set("Access-Control-Max-Age", "600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/auctions", handler.ListAuctions)
	mux.HandleFunc("GET /v1/auctions/{auctionID}", handler.GetAuction)
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/prospects", handler.ListProspects)
	mux.HandleFunc("GET /v1/prospects/{prospectID}", handler.GetProspect)
	mux.HandleFunc("GET /v1/stream", handler.Stream)
}

func registerTeamRoutes(mux *http.ServeMux, handler *Handler, teams TeamResolver, limiter *TeamRateLimiter) {
	mux.Handle("POST /v1/auctions", RequireTeam(teams, http.HandlerFunc(handler.NominateAuction)))
	mux.Handle("POST /v1/auctions/{auctionID}/bids", RequireTeam(teams, RateLimitByTeam(limiter, http.HandlerFunc(handler.PlaceBid))))
	mux.Handle("GET /v1/teams/me/auctions", RequireTeam(teams, http.HandlerFunc(handler.ListMyAuctions)))
	mux.Handle("GET /v1/teams/me/winning", RequireTeam(teams, http.HandlerFunc(handler.ListMyWinningAuctions)))
	mux.Handle("POST /v1/prospects/{prospectID}/tags", RequireTeam(teams, http.HandlerFunc(handler.TagProspect)))
	mux.Handle("POST /v1/prospects/{prospectID}/release", RequireTeam(teams, http.HandlerFunc(handler.ReleaseProspect)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /v1/admin/teams", RequireAdminToken(adminToken, http.HandlerFunc(handler.RegisterTeam)))
	mux.Handle("POST /v1/admin/teams/{teamID}/pom", RequireAdminToken(adminToken, http.HandlerFunc(handler.AdjustTeamBalance)))
	mux.Handle("POST /v1/admin/auctions/{auctionID}/close", RequireAdminToken(adminToken, http.HandlerFunc(handler.CloseAuction)))
	mux.Handle("POST /v1/admin/auctions/{auctionID}/cancel", RequireAdminToken(adminToken, http.HandlerFunc(handler.CancelAuction)))
	mux.Handle("POST /v1/admin/auctions/sweep", RequireAdminToken(adminToken, http.HandlerFunc(handler.SweepAuctions)))
	mux.Handle("PUT /v1/admin/prospects/{prospectID}/stats", RequireAdminToken(adminToken, http.HandlerFunc(handler.UpdateProspectStats)))
}

package httpapi

import "context"

type contextKey string

const teamIDContextKey contextKey = "team_id"

func withTeamID(ctx context.Context, teamID string) context.Context {
	return context.WithValue(ctx, teamIDContextKey, teamID)
}

func teamIDFromContext(ctx context.Context) (string, bool) {
	teamID, ok := ctx.Value(teamIDContextKey).(string)
	return teamID, ok && teamID != ""
}

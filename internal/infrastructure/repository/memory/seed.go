package memory

import (
	"strings"
	"time"
	"unicode"

	"github.com/riskibarqy/prospect-auction/internal/domain/team"
)

// SeedTeams builds teams from display names with slug ids and the given balance.
func SeedTeams(names []string, balance int64, now time.Time) []team.Team {
	out := make([]team.Team, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		id := slug(name)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, team.Team{
			ID:         id,
			Name:       name,
			PomBalance: balance,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return out
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

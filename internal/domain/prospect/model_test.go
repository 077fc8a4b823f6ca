package prospect

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestProspect_Validate(t *testing.T) {
	valid := Prospect{ID: "p1", Name: "Jackson Holliday", Position: PositionShortstop, Level: LevelTripleA}

	tests := []struct {
		name    string
		mutate  func(*Prospect)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Prospect) {}},
		{name: "missing name", mutate: func(p *Prospect) { p.Name = " " }, wantErr: true},
		{name: "unknown position", mutate: func(p *Prospect) { p.Position = "DH" }, wantErr: true},
		{name: "unknown level", mutate: func(p *Prospect) { p.Level = "KBO" }, wantErr: true},
		{name: "empty level allowed", mutate: func(p *Prospect) { p.Level = "" }},
		{name: "negative tags", mutate: func(p *Prospect) { p.TagsApplied = -1 }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item := valid
			tc.mutate(&item)
			err := item.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestProspect_Age(t *testing.T) {
	dob := time.Date(2003, 12, 4, 0, 0, 0, 0, time.UTC)
	item := Prospect{DateOfBirth: &dob}

	age, ok := item.Age(time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatalf("expected known age")
	}
	if !age.Equal(decimal.RequireFromString("22.5")) {
		t.Fatalf("unexpected age: %s", age)
	}

	if _, ok := (Prospect{}).Age(time.Now()); ok {
		t.Fatalf("expected unknown age without date of birth")
	}
}

func TestProspect_CloneDetachesPointers(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	item := Prospect{ID: "p1", AcquiredAt: &at}

	clone := item.Clone()
	*clone.AcquiredAt = at.Add(time.Hour)

	if !item.AcquiredAt.Equal(at) {
		t.Fatalf("clone mutated original acquired_at")
	}
}

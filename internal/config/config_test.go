package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AuctionMinBid != 5 {
		t.Fatalf("unexpected AuctionMinBid: %d", cfg.AuctionMinBid)
	}
	if cfg.AuctionTTL != 24*time.Hour {
		t.Fatalf("unexpected AuctionTTL: %s", cfg.AuctionTTL)
	}
	if cfg.AuctionExtensionMode != ExtensionReset {
		t.Fatalf("unexpected AuctionExtensionMode: %q", cfg.AuctionExtensionMode)
	}
	if cfg.AuctionRequireExternalBid {
		t.Fatalf("expected AuctionRequireExternalBid=false by default")
	}
	if cfg.TeamStartingBalance != 100 {
		t.Fatalf("unexpected TeamStartingBalance: %d", cfg.TeamStartingBalance)
	}
	if cfg.EventSubscriberBuffer != 64 {
		t.Fatalf("unexpected EventSubscriberBuffer: %d", cfg.EventSubscriberBuffer)
	}
	if cfg.BidRateLimit != 5 || cfg.BidRateBurst != 10 {
		t.Fatalf("unexpected bid rate: %v/%d", cfg.BidRateLimit, cfg.BidRateBurst)
	}
	if cfg.DBEnabled || cfg.RedisEnabled {
		t.Fatalf("expected storage and relay disabled by default")
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected LogLevel: %v", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected CORSAllowedOrigins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "uptrace without dsn", env: map[string]string{"UPTRACE_ENABLED": "true", "UPTRACE_DSN": ""}},
		{name: "zero minimum bid", env: map[string]string{"AUCTION_MIN_BID": "0"}},
		{name: "negative ttl", env: map[string]string{"AUCTION_TTL": "-1m"}},
		{name: "unknown extension mode", env: map[string]string{"AUCTION_EXTENSION_MODE": "double"}},
		{name: "grace without window", env: map[string]string{"AUCTION_EXTENSION_MODE": "grace", "AUCTION_GRACE_WINDOW": "0s"}},
		{name: "no sweep workers", env: map[string]string{"AUCTION_SWEEP_WORKERS": "0"}},
		{name: "bad subscriber buffer", env: map[string]string{"EVENT_SUBSCRIBER_BUFFER": "0"}},
		{name: "cost multiplier below two", env: map[string]string{"TAG_COST_MULTIPLIER": "1"}},
		{name: "redis without addr", env: map[string]string{"REDIS_ENABLED": "true", "REDIS_ADDR": " "}},
		{name: "pyroscope without server", env: map[string]string{"PYROSCOPE_ENABLED": "true"}},
		{name: "bad bool", env: map[string]string{"DB_ENABLED": "maybe"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %v", tc.env)
			}
		})
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "uptrace-dsn=https://token@api.uptrace.dev?grpc=4317")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_AuctionPolicy(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("AUCTION_MIN_BID", "10")
	t.Setenv("AUCTION_TTL", "1h")
	t.Setenv("AUCTION_EXTENSION_MODE", "grace")
	t.Setenv("AUCTION_GRACE_WINDOW", "2m")
	t.Setenv("AUCTION_REQUIRE_EXTERNAL_BID", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	policy := cfg.AuctionPolicy()
	if err := policy.Validate(); err != nil {
		t.Fatalf("policy validate: %v", err)
	}
	if policy.MinimumBid != 10 || policy.TTL != time.Hour || !policy.RequireExternalBid {
		t.Fatalf("unexpected policy: %+v", policy)
	}

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if got := policy.Extend(now, now.Add(30*time.Second)); !got.Equal(now.Add(2 * time.Minute)) {
		t.Fatalf("expected grace extension to now+2m, got %s", got)
	}
	if got := policy.Extend(now, now.Add(30*time.Minute)); !got.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("expected distant deadline unchanged, got %s", got)
	}
}

func TestLoad_EligibilityPolicyFileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eligibility.yaml")
	content := "hitter_base: 130\npitcher_base: 45.5\ntag_cost_multiplier: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("ELIGIBILITY_HITTER_BASE", "200")
	t.Setenv("TAG_BASE_COST", "7")
	t.Setenv("ELIGIBILITY_POLICY_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	policy := cfg.EligibilityPolicy()
	if err := policy.Validate(); err != nil {
		t.Fatalf("policy validate: %v", err)
	}
	if !policy.HitterBase.Equal(decimal.NewFromInt(130)) {
		t.Fatalf("unexpected hitter base: %s", policy.HitterBase)
	}
	if !policy.PitcherBase.Equal(decimal.RequireFromString("45.5")) {
		t.Fatalf("unexpected pitcher base: %s", policy.PitcherBase)
	}
	if got := policy.NextTagCost(2); got != 63 {
		t.Fatalf("expected 7*3^2=63, got %d", got)
	}
}

func TestLoad_MissingPolicyFile(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("ELIGIBILITY_POLICY_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing policy file")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("SEED_TEAMS=Durham Bulls, Toledo Mud Hens\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("ENV_FILE", path)
	t.Setenv("SEED_TEAMS", "")
	os.Unsetenv("SEED_TEAMS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.SeedTeams) != 2 || cfg.SeedTeams[1] != "Toledo Mud Hens" {
		t.Fatalf("unexpected SeedTeams: %v", cfg.SeedTeams)
	}
}

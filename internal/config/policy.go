package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/prospect-auction/internal/domain/auction"
	"github.com/riskibarqy/prospect-auction/internal/domain/eligibility"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// policyFile is the YAML eligibility schedule. Missing keys keep the env value.
type policyFile struct {
	HitterBase        *float64 `yaml:"hitter_base"`
	PitcherBase       *float64 `yaml:"pitcher_base"`
	TagBaseCost       *int64   `yaml:"tag_base_cost"`
	TagCostMultiplier *int64   `yaml:"tag_cost_multiplier"`
}

func readPolicyFile(path string) (policyFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return policyFile{}, errors.Wrapf(err, "read ELIGIBILITY_POLICY_FILE %s", path)
	}

	var out policyFile
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return policyFile{}, errors.Wrapf(err, "parse ELIGIBILITY_POLICY_FILE %s", path)
	}
	return out, nil
}

func (f policyFile) apply(cfg *Config) {
	if f.HitterBase != nil {
		cfg.EligibilityHitterBase = *f.HitterBase
	}
	if f.PitcherBase != nil {
		cfg.EligibilityPitcherBase = *f.PitcherBase
	}
	if f.TagBaseCost != nil {
		cfg.TagBaseCost = *f.TagBaseCost
	}
	if f.TagCostMultiplier != nil {
		cfg.TagCostMultiplier = *f.TagCostMultiplier
	}
}

// AuctionPolicy builds the rules new auctions are created with.
func (c Config) AuctionPolicy() auction.Policy {
	policy := auction.Policy{
		MinimumBid:         c.AuctionMinBid,
		TTL:                c.AuctionTTL,
		RequireExternalBid: c.AuctionRequireExternalBid,
	}

	switch c.AuctionExtensionMode {
	case ExtensionGrace:
		policy.Extend = auction.GraceWindowExtension(c.AuctionGraceWindow)
	case ExtensionNone:
		policy.Extend = auction.NoExtension()
	default:
		policy.Extend = auction.ResetExtension(c.AuctionTTL)
	}
	return policy
}

func (c Config) EligibilityPolicy() eligibility.Policy {
	return eligibility.Policy{
		HitterBase:  decimal.NewFromFloat(c.EligibilityHitterBase),
		PitcherBase: decimal.NewFromFloat(c.EligibilityPitcherBase),
		Threshold:   eligibility.LinearThreshold(),
		NextTagCost: eligibility.GeometricCost(c.TagBaseCost, c.TagCostMultiplier),
	}
}

package economics

import "fmt"

// Thresholds are the fundability cutoffs. They are configuration, not
// constants, and callers load them from the service config.
type Thresholds struct {
	MaxPaybackMonths         float64 `yaml:"max_payback_months" json:"max_payback_months"`
	WarnPaybackMonths        float64 `yaml:"warn_payback_months" json:"warn_payback_months"`
	MinLTVToCAC              float64 `yaml:"min_ltv_to_cac" json:"min_ltv_to_cac"`
	MaxLTVToCAC              float64 `yaml:"max_ltv_to_cac" json:"max_ltv_to_cac"`
	MinContributionMarginPct float64 `yaml:"min_contribution_margin_pct" json:"min_contribution_margin_pct"`
	MinRetentionMonths       float64 `yaml:"min_retention_months" json:"min_retention_months"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxPaybackMonths:         12,
		WarnPaybackMonths:        6,
		MinLTVToCAC:              3,
		MaxLTVToCAC:              5,
		MinContributionMarginPct: 40,
		MinRetentionMonths:       3,
	}
}

func (t Thresholds) Validate() error {
	if t.MaxPaybackMonths <= 0 {
		return fmt.Errorf("max_payback_months must be > 0")
	}
	if t.WarnPaybackMonths < 0 || t.WarnPaybackMonths > t.MaxPaybackMonths {
		return fmt.Errorf("warn_payback_months must be within [0, max_payback_months]")
	}
	if t.MinLTVToCAC <= 0 {
		return fmt.Errorf("min_ltv_to_cac must be > 0")
	}
	if t.MaxLTVToCAC < t.MinLTVToCAC {
		return fmt.Errorf("max_ltv_to_cac must be >= min_ltv_to_cac")
	}
	if t.MinContributionMarginPct < 0 || t.MinContributionMarginPct > 100 {
		return fmt.Errorf("min_contribution_margin_pct must be within [0, 100]")
	}
	if t.MinRetentionMonths < 0 {
		return fmt.Errorf("min_retention_months must be >= 0")
	}
	return nil
}

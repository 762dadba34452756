package main

import (
	"github.com/spf13/cobra"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/economics"
)

type cacInput struct {
	Inputs       economics.CACInputs        `json:"inputs"`
	Price        float64                    `json:"price" validate:"gte=0"`
	MarginPct    float64                    `json:"margin_pct" validate:"gte=0,lte=100"`
	MarginSource economics.AssumptionSource `json:"margin_source,omitempty"`

	// RetentionMonths > 0 adds the unit economics assessment.
	RetentionMonths       float64                    `json:"retention_months,omitempty" validate:"gte=0"`
	RetentionSource       economics.AssumptionSource `json:"retention_source,omitempty"`
	ContributionMarginPct *float64                   `json:"contribution_margin_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type cacOutput struct {
	CAC           economics.CACPaybackResult     `json:"cac"`
	UnitEconomics *economics.UnitEconomicsResult `json:"unit_economics,omitempty"`
}

func (in cacInput) evaluate(th economics.Thresholds) cacOutput {
	p := economics.Pricing{Price: in.Price, MarginPct: in.MarginPct, MarginSource: in.MarginSource}
	out := cacOutput{CAC: economics.CalculateCACPayback(in.Inputs, p, th)}
	if in.RetentionMonths > 0 {
		ue := economics.CalculateUnitEconomics(
			economics.UnitEconomicsInputFromCAC(out.CAC, in.RetentionMonths, in.RetentionSource, in.ContributionMarginPct), th)
		out.UnitEconomics = &ue
	}
	return out
}

var cacCmd = &cobra.Command{
	Use:   "cac",
	Short: "Compute CAC payback and, with retention, unit economics",
	RunE:  runCAC,
}

var cacInputPath string

func init() {
	addInputFlag(cacCmd, &cacInputPath)
	rootCmd.AddCommand(cacCmd)
}

func runCAC(cmd *cobra.Command, _ []string) error {
	var in cacInput
	if err := readInput(cmd, cacInputPath, &in); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return printJSON(cmd, in.evaluate(cfg.Thresholds))
}

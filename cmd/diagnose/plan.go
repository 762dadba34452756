package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/config"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/narrative"
)

type planInput struct {
	Metrics        diagnostic.AuditMetrics   `json:"metrics"`
	Goals          diagnostic.GoalData       `json:"goals"`
	SoftBottleneck diagnostic.SoftBottleneck `json:"soft_bottleneck" validate:"required"`
}

type planOutput struct {
	Verdict   diagnostic.Verdict       `json:"verdict"`
	Plan      diagnostic.GeneratedPlan `json:"plan"`
	Narrative string                   `json:"narrative,omitempty"`
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Diagnose, attach the self-reported blocker and build the 3-day plan",
	RunE:  runPlan,
}

var (
	planInputPath string
	planNarrate   bool
)

func init() {
	addInputFlag(planCmd, &planInputPath)
	planCmd.Flags().BoolVar(&planNarrate, "narrate", false, "Add a coach's note (uses Claude when ANTHROPIC_API_KEY is set and the narrator is enabled)")
	rootCmd.AddCommand(planCmd)
}

// buildPlan runs the verdict and plan steps in order.
func buildPlan(in planInput) (diagnostic.Verdict, diagnostic.GeneratedPlan, error) {
	v, err := diagnostic.AttachSoftBottleneck(diagnostic.BuildVerdict(in.Metrics, in.Goals), in.SoftBottleneck)
	if err != nil {
		return diagnostic.Verdict{}, diagnostic.GeneratedPlan{}, err
	}
	plan, err := diagnostic.GeneratePlan(v.Bottleneck, in.SoftBottleneck, diagnostic.PlanMetricsFromVerdict(v))
	if err != nil {
		return diagnostic.Verdict{}, diagnostic.GeneratedPlan{}, err
	}
	return v, plan, nil
}

// newNarrator returns Claude behind a template fallback when enabled and
// configured, otherwise the template alone.
func newNarrator(cfg config.Config) narrative.Narrator {
	if !cfg.NarratorEnabled {
		return narrative.TemplateNarrator{}
	}
	n, err := narrative.NewAnthropicNarratorFromEnv(cfg.NarratorModel)
	if err != nil {
		log.Warn().Err(err).Msg("narrator disabled")
		return narrative.TemplateNarrator{}
	}
	return narrative.NewFallback(n)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	var in planInput
	if err := readInput(cmd, planInputPath, &in); err != nil {
		return err
	}
	v, plan, err := buildPlan(in)
	if err != nil {
		return err
	}
	out := planOutput{Verdict: v, Plan: plan}
	if planNarrate {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		note, err := newNarrator(cfg).Narrate(cmd.Context(), narrative.Input{Verdict: v, Plan: &plan})
		if err != nil {
			return err
		}
		out.Narrative = note
	}
	return printJSON(cmd, out)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
)

type auditInput struct {
	Metrics diagnostic.AuditMetrics `json:"metrics"`
	Goals   diagnostic.GoalData     `json:"goals"`
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Diagnose the bottleneck from funnel metrics and goals",
	RunE:  runAudit,
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Project the revenue gap and clients needed at the current price",
	RunE:  runModel,
}

var (
	auditInputPath string
	modelInputPath string
)

func init() {
	addInputFlag(auditCmd, &auditInputPath)
	addInputFlag(modelCmd, &modelInputPath)
	rootCmd.AddCommand(auditCmd, modelCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	var in auditInput
	if err := readInput(cmd, auditInputPath, &in); err != nil {
		return err
	}
	return printJSON(cmd, diagnostic.BuildVerdict(in.Metrics, in.Goals))
}

func runModel(cmd *cobra.Command, _ []string) error {
	var goals diagnostic.GoalData
	if err := readInput(cmd, modelInputPath, &goals); err != nil {
		return err
	}
	return printJSON(cmd, diagnostic.CalculateModel(goals))
}

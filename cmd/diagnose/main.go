// Package main implements the diagnose CLI: the bottleneck audit, gap model,
// unit economics, offer scoring, plan and report from JSON input files.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/config"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "diagnose",
	Short:         "Founder bottleneck audit",
	Long:          "diagnose runs the rule-based bottleneck audit, revenue gap model, CAC payback and unit economics, offer scoring and 3-day plan over JSON input files.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return config.ConfigureLogging(logLevel, "console", cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (economics thresholds, narrator)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

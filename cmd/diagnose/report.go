package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/narrative"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/report"
)

type reportInput struct {
	AuditID        string                    `json:"audit_id,omitempty"`
	Metrics        diagnostic.AuditMetrics   `json:"metrics"`
	Goals          diagnostic.GoalData       `json:"goals"`
	SoftBottleneck diagnostic.SoftBottleneck `json:"soft_bottleneck,omitempty"`
	Economics      *cacInput                 `json:"economics,omitempty"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the full audit report as markdown, HTML or PDF",
	RunE:  runReport,
}

var (
	reportInputPath string
	reportFormat    string
	reportOut       string
)

func init() {
	addInputFlag(reportCmd, &reportInputPath)
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "md", "Output format: md, html or pdf")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	var in reportInput
	if err := readInput(cmd, reportInputPath, &in); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc := report.Document{AuditID: in.AuditID, CompletedAt: time.Now().UTC()}
	if in.SoftBottleneck != "" {
		v, plan, err := buildPlan(planInput{Metrics: in.Metrics, Goals: in.Goals, SoftBottleneck: in.SoftBottleneck})
		if err != nil {
			return err
		}
		doc.Verdict, doc.Plan = v, &plan
		note, err := newNarrator(cfg).Narrate(cmd.Context(), narrative.Input{Verdict: v, Plan: &plan})
		if err != nil {
			return err
		}
		doc.Narrative = note
	} else {
		doc.Verdict = diagnostic.BuildVerdict(in.Metrics, in.Goals)
	}
	if in.Economics != nil {
		out := in.Economics.evaluate(cfg.Thresholds)
		doc.Economics, doc.UnitEconomics = &out.CAC, out.UnitEconomics
	}

	var pdf report.PDFRenderer
	if format == report.FormatPDF {
		if chromium := report.NewChromiumPDFRenderer(cfg.ChromePath); chromium.Available() {
			layout, err := report.LayoutByName(cfg.PDFPaper)
			if err != nil {
				return err
			}
			layout.Footer = "Bottleneck Audit"
			if doc.AuditID != "" {
				layout.Footer += " " + doc.AuditID
			}
			pdf = chromium.WithLayout(layout)
		}
	}
	data, err := report.Render(cmd.Context(), doc, format, pdf)
	if err != nil {
		return err
	}
	return writeOutput(cmd, reportOut, data)
}

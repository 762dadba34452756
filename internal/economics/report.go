package economics

import (
	"fmt"
	"strings"
)

var assumptionLabels = map[AssumptionSource]string{
	SourceUserProvided:          "your number",
	SourceUserEstimate:          "your estimate",
	SourceBenchmarkAcknowledged: "industry benchmark",
	SourceSystemDefault:         "default",
}

// BuildMarkdown renders CAC and, when present, unit economics results with an
// assumption disclosure table.
func BuildMarkdown(cac CACPaybackResult, ue *UnitEconomicsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Unit Economics\n\n")
	if !cac.Breakdown.Computable {
		fmt.Fprintf(&b, "CAC could not be computed: enter how many new customers you win per month.\n\n")
	} else {
		fmt.Fprintf(&b, "| Component | Per customer |\n|-----------|--------------|\n")
		fmt.Fprintf(&b, "| Ad spend | $%.2f |\n", cac.Breakdown.AdSpend)
		fmt.Fprintf(&b, "| Content | $%.2f |\n", cac.Breakdown.ContentCost)
		fmt.Fprintf(&b, "| Sales commission | $%.2f |\n", cac.Breakdown.SalesCommission)
		fmt.Fprintf(&b, "| Salary allocation | $%.2f |\n", cac.Breakdown.SalaryAllocation)
		fmt.Fprintf(&b, "| Tools | $%.2f |\n", cac.Breakdown.ToolsCost)
		fmt.Fprintf(&b, "| **Total CAC** | **$%.2f** |\n\n", cac.TotalCACPerCustomer)
	}
	fmt.Fprintf(&b, "- Gross profit per customer: $%.2f\n", cac.GrossProfitPerCustomer)
	fmt.Fprintf(&b, "- CAC payback: %s\n", months(cac.CACPaybackMonths))
	fmt.Fprintf(&b, "- Fundable on payback: %s\n", yesNo(cac.IsFundable))

	if ue != nil {
		fmt.Fprintf(&b, "- Lifetime value: $%.2f\n", ue.LTV)
		if ue.CACRatio != nil {
			fmt.Fprintf(&b, "- LTV:CAC: %.1f\n", *ue.CACRatio)
		} else {
			fmt.Fprintf(&b, "- LTV:CAC: undefined\n")
		}
		fmt.Fprintf(&b, "- Fundable: %s\n", yesNo(ue.Fundability.IsFundable))
		if ue.Fundability.IsScenario {
			fmt.Fprintf(&b, "\n_This is a scenario: some inputs are estimates or defaults._\n")
		}
		writeList(&b, "Blockers", ue.Fundability.Blockers)
		writeList(&b, "Flags", ue.Fundability.Flags)
	}
	b.WriteString("\n")

	if len(cac.Assumptions) > 0 {
		fmt.Fprintf(&b, "### Assumptions\n\n| Input | Value | Source |\n|-------|-------|--------|\n")
		for _, a := range cac.Assumptions {
			fmt.Fprintf(&b, "| %s | %.2f | %s |\n", a.Field, a.Value, sourceLabel(a.Source))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s**\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func sourceLabel(s AssumptionSource) string {
	if l, ok := assumptionLabels[s]; ok {
		return l
	}
	return string(s)
}

func months(v *float64) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%.1f months", *v)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

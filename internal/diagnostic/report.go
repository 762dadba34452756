package diagnostic

import (
	"fmt"
	"strings"
	"time"
)

var bottleneckLabels = map[BottleneckType]string{
	BottleneckVolumeOutreach: "Outreach volume",
	BottleneckVolumeFollowup: "Follow-up volume",
	BottleneckSkillMessaging: "Messaging",
	BottleneckSkillSales:     "Sales conversations",
	BottleneckPrice:          "Price",
	BottleneckCapacity:       "Delivery capacity",
}

func BottleneckLabel(b BottleneckType) string {
	if l, ok := bottleneckLabels[b]; ok {
		return l
	}
	return string(b)
}

type ReportInput struct {
	AuditID     string
	CompletedAt time.Time
	Verdict     Verdict
	Plan        *GeneratedPlan
	Narrative   string
}

// BuildMarkdown renders the audit as a markdown document.
func BuildMarkdown(in ReportInput) string {
	v := in.Verdict
	var b strings.Builder
	fmt.Fprintf(&b, "# Bottleneck Audit\n\n")
	if in.AuditID != "" {
		fmt.Fprintf(&b, "- Audit ID: %s\n", sanitize(in.AuditID))
	}
	if !in.CompletedAt.IsZero() {
		fmt.Fprintf(&b, "- Date: %s\n", in.CompletedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Bottleneck: **%s** (`%s`)\n", BottleneckLabel(v.Bottleneck), v.Bottleneck)
	if v.SoftBottleneck != nil {
		fmt.Fprintf(&b, "- Self-reported blocker: `%s`\n", *v.SoftBottleneck)
	}
	fmt.Fprintf(&b, "\n%s\n\n", Disclaimer)

	fmt.Fprintf(&b, "## How This Audit Works\n\n")
	fmt.Fprintf(&b, "Your last %d days of funnel activity are checked against an ordered list of rules. "+
		"The first rule that matches names the bottleneck. Rules that need the least evidence run first, "+
		"so \"nothing is happening yet\" always wins over conclusions drawn from your pricing model.\n\n", windowDays(v.Metrics))

	fmt.Fprintf(&b, "## Your Funnel\n\n")
	fmt.Fprintf(&b, "| Stage | Count |\n|-------|-------|\n")
	fmt.Fprintf(&b, "| Outreach | %d |\n", v.Metrics.TotalOutreach)
	fmt.Fprintf(&b, "| Responses | %d |\n", v.Metrics.TotalResponses)
	fmt.Fprintf(&b, "| Sales calls | %d |\n", v.Metrics.SalesCalls)
	fmt.Fprintf(&b, "| Clients closed | %d |\n", v.Metrics.ClientsClosed)
	fmt.Fprintf(&b, "\n- Response rate: %.1f%%\n\n", ResponseRate(v.Metrics))

	fmt.Fprintf(&b, "## Revenue Gap\n\n")
	fmt.Fprintf(&b, "- Current revenue: $%.0f\n", v.Model.CurrentRevenue)
	fmt.Fprintf(&b, "- Goal revenue: $%.0f\n", v.Model.GoalRevenue)
	if v.Model.Gap <= 0 {
		fmt.Fprintf(&b, "- Gap: none, the goal is already met\n")
	} else {
		fmt.Fprintf(&b, "- Gap: $%.0f\n", v.Model.Gap)
	}
	fmt.Fprintf(&b, "- Clients needed at $%.0f: %d (capacity %d)\n", v.Goals.PricePerClient, v.Model.ClientsNeededAtCurrentPrice, v.Goals.MaxClients)
	fmt.Fprintf(&b, "- Sustainable at current price: %s\n\n", yesNo(v.Model.IsSustainable))

	fmt.Fprintf(&b, "## Prescription\n\n")
	fmt.Fprintf(&b, "**%s**: %d, %s\n\n", sanitize(v.Prescription.Action), v.Prescription.Quantity, timeframeLabel(v.Prescription.Timeframe))
	fmt.Fprintf(&b, "%s\n\n", sanitize(v.Prescription.Explanation))

	if in.Plan != nil {
		fmt.Fprintf(&b, "## 3-Day Plan\n\n")
		fmt.Fprintf(&b, "**%s**\n\n%s\n\n", sanitize(in.Plan.Headline), sanitize(in.Plan.Diagnosis))
		for _, d := range in.Plan.Days {
			fmt.Fprintf(&b, "### Day %d: %s\n\n", d.Day, sanitize(d.Title))
			for _, t := range d.Tasks {
				fmt.Fprintf(&b, "- %s\n", sanitize(t))
			}
			fmt.Fprintf(&b, "\n")
		}
		if in.Plan.MissingCalls > 0 {
			fmt.Fprintf(&b, "- Missing calls vs. benchmark: %d (about $%.0f in lost revenue)\n\n", in.Plan.MissingCalls, in.Plan.LostRevenue)
		}
	}
	if strings.TrimSpace(in.Narrative) != "" {
		fmt.Fprintf(&b, "## Coach's Note\n\n%s\n", strings.TrimSpace(in.Narrative))
	}
	return b.String()
}

func windowDays(m AuditMetrics) int {
	if m.WindowDays > 0 {
		return m.WindowDays
	}
	return DefaultWindowDays
}

func timeframeLabel(t Timeframe) string {
	switch t {
	case TimeframeByFriday:
		return "by Friday"
	case TimeframeThisWeek:
		return "this week"
	default:
		return string(t)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}

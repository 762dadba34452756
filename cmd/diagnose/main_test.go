package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

const funnelInput = `{
  "metrics": {"total_outreach": 200, "total_responses": 40, "sales_calls": 2, "clients_closed": 1},
  "goals": {"revenue_goal": 20000, "current_revenue": 5000, "price_per_client": 2500, "max_clients": 10, "close_rate": 50}
}`

func TestAuditCommandFromFile(t *testing.T) {
	out, err := runCLI(t, "", "audit", "--input", writeInput(t, funnelInput))
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	var v diagnostic.Verdict
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode verdict: %v\n%s", err, out)
	}
	if !v.Bottleneck.Valid() || v.Model.Gap != 15000 {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestModelCommandFromStdin(t *testing.T) {
	out, err := runCLI(t, `{"revenue_goal": 10000, "current_revenue": 4000, "price_per_client": 2000, "max_clients": 2}`, "model", "--input", "-")
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	var m diagnostic.ModelPlayOut
	_ = json.Unmarshal([]byte(out), &m)
	if m.ClientsNeededAtCurrentPrice != 3 || m.IsSustainable {
		t.Fatalf("unexpected model: %+v", m)
	}
}

func TestAuditCommandRequiresInput(t *testing.T) {
	if _, err := runCLI(t, "", "audit"); err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("expected required flag error, got %v", err)
	}
}

func TestAuditCommandRejectsInvalidInput(t *testing.T) {
	if _, err := runCLI(t, `{"metrics": {"total_outreach": -5}}`, "audit", "-i", "-"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCACCommandWithRetention(t *testing.T) {
	in := `{"inputs": {"mode": "monthly_spend", "ad_spend": {"amount": 3000}, "new_customers_per_month": 3},
	        "price": 2000, "margin_pct": 50, "retention_months": 6}`
	out, err := runCLI(t, in, "cac", "-i", "-")
	if err != nil {
		t.Fatalf("cac: %v", err)
	}
	var res cacOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.CAC.TotalCACPerCustomer != 1000 || res.UnitEconomics == nil {
		t.Fatalf("unexpected cac output: %+v", res)
	}
}

func TestOffersCommandInfersConstraint(t *testing.T) {
	in := `{"offers": [{"id": "a", "name": "A", "price": 5000}, {"id": "b", "name": "B", "price": 1000}],
	        "context": {"revenue_gap": 10000}, "survey": {"primary": "clients_dont_stay"}}`
	out, err := runCLI(t, in, "offers", "-i", "-")
	if err != nil {
		t.Fatalf("offers: %v", err)
	}
	var res offersOutput
	_ = json.Unmarshal([]byte(out), &res)
	if res.Constraint != "retention" || len(res.Offers) != 2 {
		t.Fatalf("unexpected offers output: %+v", res)
	}
}

func TestPlanCommand(t *testing.T) {
	in := strings.TrimSuffix(strings.TrimSpace(funnelInput), "}") + `, "soft_bottleneck": "energy"}`
	out, err := runCLI(t, in, "plan", "-i", "-")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var res planOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(res.Plan.Days) != 3 || res.Verdict.SoftBottleneck == nil || *res.Verdict.SoftBottleneck != diagnostic.SoftEnergy {
		t.Fatalf("unexpected plan output: %+v", res)
	}
}

func TestReportCommandWritesMarkdownFile(t *testing.T) {
	in := strings.TrimSuffix(strings.TrimSpace(funnelInput), "}") +
		`, "soft_bottleneck": "time", "economics": {"inputs": {"mode": "per_customer", "ad_spend": {"amount": 400}}, "price": 2500, "margin_pct": 60, "retention_months": 12}}`
	dest := filepath.Join(t.TempDir(), "out", "report.md")
	if _, err := runCLI(t, in, "report", "-i", "-", "--format", "md", "--out", dest); err != nil {
		t.Fatalf("report: %v", err)
	}
	body, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"# Bottleneck Audit", "## 3-Day Plan", "## Unit Economics", "## Coach's Note"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("report missing %q:\n%s", want, body)
		}
	}
}

func TestReportCommandRejectsUnknownFormat(t *testing.T) {
	if _, err := runCLI(t, funnelInput, "report", "-i", "-", "--format", "docx"); err == nil {
		t.Fatal("expected format error")
	}
}

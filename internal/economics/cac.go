package economics

import "github.com/shopspring/decimal"

// divPlaces keeps per-customer quotients well past float64 precision so the
// rounded result matches a plain float division.
const divPlaces = 28

// NormalizeCAC converts the inputs into a per-customer breakdown. Sales
// commission is paid per deal and is never divided.
func NormalizeCAC(in CACInputs) CACBreakdown {
	if in.Mode != ModeMonthlySpend {
		return CACBreakdown{
			AdSpend:          in.AdSpend.Amount,
			ContentCost:      in.ContentCost.Amount,
			SalesCommission:  in.SalesCommission.Amount,
			SalaryAllocation: in.SalaryAllocation.Amount,
			ToolsCost:        in.ToolsCost.Amount,
			Computable:       true,
		}
	}
	if in.NewCustomersPerMonth <= 0 {
		return CACBreakdown{SalesCommission: in.SalesCommission.Amount}
	}
	n := decimal.NewFromFloat(in.NewCustomersPerMonth)
	perCustomer := func(c CostComponent) float64 {
		return decimal.NewFromFloat(c.Amount).DivRound(n, divPlaces).InexactFloat64()
	}
	return CACBreakdown{
		AdSpend:          perCustomer(in.AdSpend),
		ContentCost:      perCustomer(in.ContentCost),
		SalesCommission:  in.SalesCommission.Amount,
		SalaryAllocation: perCustomer(in.SalaryAllocation),
		ToolsCost:        perCustomer(in.ToolsCost),
		Computable:       true,
	}
}

func (b CACBreakdown) Total() float64 {
	sum := decimal.Zero
	for _, v := range []float64{b.AdSpend, b.ContentCost, b.SalesCommission, b.SalaryAllocation, b.ToolsCost} {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.InexactFloat64()
}

// GrossProfit is price times the margin fraction.
func GrossProfit(p Pricing) float64 {
	return decimal.NewFromFloat(p.Price).
		Mul(decimal.NewFromFloat(p.MarginPct)).
		Div(decimal.NewFromInt(100)).
		InexactFloat64()
}

// CalculateCACPayback computes payback and fundability. Payback is nil when
// gross profit is not positive or the breakdown is not computable.
func CalculateCACPayback(in CACInputs, p Pricing, th Thresholds) CACPaybackResult {
	breakdown := NormalizeCAC(in)
	res := CACPaybackResult{
		GrossProfitPerCustomer: GrossProfit(p),
		Breakdown:              breakdown,
		Assumptions:            collectAssumptions(in, breakdown, p),
	}
	if !breakdown.Computable {
		return res
	}
	res.TotalCACPerCustomer = breakdown.Total()
	if res.GrossProfitPerCustomer > 0 {
		months := decimal.NewFromFloat(res.TotalCACPerCustomer).
			Div(decimal.NewFromFloat(res.GrossProfitPerCustomer))
		m := months.InexactFloat64()
		d := months.Mul(decimal.NewFromInt(PaybackDaysPerMonth)).InexactFloat64()
		res.CACPaybackMonths = &m
		res.CACPaybackDays = &d
	}
	res.IsFundable = res.GrossProfitPerCustomer > 0 &&
		res.CACPaybackMonths != nil &&
		*res.CACPaybackMonths <= th.MaxPaybackMonths
	return res
}

func collectAssumptions(in CACInputs, b CACBreakdown, p Pricing) []Assumption {
	out := []Assumption{}
	add := func(field string, c CostComponent, value float64) {
		if c.Source.Assumed() {
			out = append(out, Assumption{Field: field, Value: value, Source: c.Source})
		}
	}
	add("ad_spend", in.AdSpend, b.AdSpend)
	add("content_cost", in.ContentCost, b.ContentCost)
	add("sales_commission", in.SalesCommission, b.SalesCommission)
	add("salary_allocation", in.SalaryAllocation, b.SalaryAllocation)
	add("tools_cost", in.ToolsCost, b.ToolsCost)
	if p.MarginSource.Assumed() {
		out = append(out, Assumption{Field: "margin_pct", Value: p.MarginPct, Source: p.MarginSource})
	}
	return out
}

package economics

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnitEconomicsInputFromCAC carries a CAC result forward into the unit
// economics phase.
func UnitEconomicsInputFromCAC(res CACPaybackResult, retentionMonths float64, retentionSource AssumptionSource, contributionMarginPct *float64) UnitEconomicsInput {
	return UnitEconomicsInput{
		GrossProfitPerCustomer: res.GrossProfitPerCustomer,
		TotalCAC:               res.TotalCACPerCustomer,
		PaybackMonths:          res.CACPaybackMonths,
		RetentionMonths:        retentionMonths,
		RetentionSource:        retentionSource,
		ContributionMarginPct:  contributionMarginPct,
		Assumptions:            res.Assumptions,
	}
}

func CalculateUnitEconomics(in UnitEconomicsInput, th Thresholds) UnitEconomicsResult {
	ltvDec := decimal.NewFromFloat(in.GrossProfitPerCustomer).Mul(decimal.NewFromFloat(in.RetentionMonths))
	res := UnitEconomicsResult{
		LTV:           ltvDec.InexactFloat64(),
		PaybackMonths: in.PaybackMonths,
	}
	if in.TotalCAC > 0 {
		r := ltvDec.Div(decimal.NewFromFloat(in.TotalCAC)).InexactFloat64()
		res.CACRatio = &r
	}
	res.Fundability = assessFundability(in, res, th)
	return res
}

func assessFundability(in UnitEconomicsInput, res UnitEconomicsResult, th Thresholds) Fundability {
	f := Fundability{Blockers: []string{}, Flags: []string{}}

	if in.GrossProfitPerCustomer <= 0 {
		f.Blockers = append(f.Blockers, "Gross profit per customer is zero or negative, so acquisition cost can never be repaid.")
	}
	switch {
	case res.CACRatio == nil:
		f.Blockers = append(f.Blockers, "LTV:CAC ratio is undefined because acquisition cost is zero or unknown.")
	case *res.CACRatio < th.MinLTVToCAC:
		f.Blockers = append(f.Blockers, fmt.Sprintf("LTV:CAC ratio of %.1f is below the %.1f minimum.", *res.CACRatio, th.MinLTVToCAC))
	case *res.CACRatio > th.MaxLTVToCAC:
		f.Flags = append(f.Flags, fmt.Sprintf("LTV:CAC ratio of %.1f is above %.1f; you may be under-investing in growth.", *res.CACRatio, th.MaxLTVToCAC))
	}
	// A non-positive gross profit already explains a missing payback.
	if in.GrossProfitPerCustomer > 0 {
		switch {
		case in.PaybackMonths == nil:
			f.Blockers = append(f.Blockers, "CAC payback period is undefined.")
		case *in.PaybackMonths > th.MaxPaybackMonths:
			f.Blockers = append(f.Blockers, fmt.Sprintf("CAC payback of %.1f months exceeds the %.0f-month ceiling.", *in.PaybackMonths, th.MaxPaybackMonths))
		case *in.PaybackMonths > th.WarnPaybackMonths:
			f.Flags = append(f.Flags, fmt.Sprintf("CAC payback of %.1f months is longer than %.0f months; cash will be tied up.", *in.PaybackMonths, th.WarnPaybackMonths))
		}
	}

	if in.ContributionMarginPct != nil && *in.ContributionMarginPct < th.MinContributionMarginPct {
		f.Flags = append(f.Flags, fmt.Sprintf("Contribution margin of %.0f%% is below %.0f%%.", *in.ContributionMarginPct, th.MinContributionMarginPct))
	}
	if in.RetentionSource.Assumed() {
		f.Flags = append(f.Flags, "Retention is an estimate, not a measured number.")
	}
	if in.RetentionMonths < th.MinRetentionMonths {
		f.Flags = append(f.Flags, fmt.Sprintf("Customers stay %.1f months, under the %.0f-month minimum.", in.RetentionMonths, th.MinRetentionMonths))
	}

	f.IsFundable = len(f.Blockers) == 0
	f.IsScenario = in.RetentionSource.Assumed()
	for _, a := range in.Assumptions {
		if a.Source.Assumed() {
			f.IsScenario = true
			break
		}
	}
	return f
}

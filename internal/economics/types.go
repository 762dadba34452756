package economics

// PaybackDaysPerMonth converts payback months to days.
const PaybackDaysPerMonth = 30

type AssumptionSource string

const (
	SourceUserProvided          AssumptionSource = "user_provided"
	SourceUserEstimate          AssumptionSource = "user_estimate"
	SourceBenchmarkAcknowledged AssumptionSource = "benchmark_acknowledged"
	SourceSystemDefault         AssumptionSource = "system_default"
)

func (s AssumptionSource) Valid() bool {
	switch s {
	case SourceUserProvided, SourceUserEstimate, SourceBenchmarkAcknowledged, SourceSystemDefault:
		return true
	}
	return false
}

// Assumed reports whether a value came from anywhere other than the founder's
// own numbers. An empty source counts as user provided.
func (s AssumptionSource) Assumed() bool {
	return s != "" && s != SourceUserProvided
}

type CACMode string

const (
	ModePerCustomer  CACMode = "per_customer"
	ModeMonthlySpend CACMode = "monthly_spend"
)

type CostComponent struct {
	Amount float64          `json:"amount" validate:"gte=0"`
	Source AssumptionSource `json:"source,omitempty" validate:"omitempty,oneof=user_provided user_estimate benchmark_acknowledged system_default"`
}

// CACInputs holds the five acquisition cost components. In monthly_spend mode
// every component except SalesCommission is a monthly total.
type CACInputs struct {
	Mode                 CACMode       `json:"mode" validate:"omitempty,oneof=per_customer monthly_spend"`
	AdSpend              CostComponent `json:"ad_spend"`
	ContentCost          CostComponent `json:"content_cost"`
	SalesCommission      CostComponent `json:"sales_commission"`
	SalaryAllocation     CostComponent `json:"salary_allocation"`
	ToolsCost            CostComponent `json:"tools_cost"`
	NewCustomersPerMonth float64       `json:"new_customers_per_month" validate:"gte=0"`
}

type Pricing struct {
	Price        float64          `json:"price" validate:"gte=0"`
	MarginPct    float64          `json:"margin_pct" validate:"gte=0,lte=100"`
	MarginSource AssumptionSource `json:"margin_source,omitempty" validate:"omitempty,oneof=user_provided user_estimate benchmark_acknowledged system_default"`
}

// CACBreakdown is the per-customer cost structure. Computable is false when a
// monthly total could not be divided into a per-customer figure.
type CACBreakdown struct {
	AdSpend          float64 `json:"ad_spend"`
	ContentCost      float64 `json:"content_cost"`
	SalesCommission  float64 `json:"sales_commission"`
	SalaryAllocation float64 `json:"salary_allocation"`
	ToolsCost        float64 `json:"tools_cost"`
	Computable       bool    `json:"computable"`
}

type Assumption struct {
	Field  string           `json:"field"`
	Value  float64          `json:"value"`
	Source AssumptionSource `json:"source"`
}

type CACPaybackResult struct {
	TotalCACPerCustomer    float64      `json:"total_cac_per_customer"`
	GrossProfitPerCustomer float64      `json:"gross_profit_per_customer"`
	CACPaybackMonths       *float64     `json:"cac_payback_months"`
	CACPaybackDays         *float64     `json:"cac_payback_days"`
	IsFundable             bool         `json:"is_fundable"`
	Breakdown              CACBreakdown `json:"breakdown"`
	Assumptions            []Assumption `json:"assumptions"`
}

type UnitEconomicsInput struct {
	GrossProfitPerCustomer float64          `json:"gross_profit_per_customer"`
	TotalCAC               float64          `json:"total_cac"`
	PaybackMonths          *float64         `json:"payback_months"`
	RetentionMonths        float64          `json:"retention_months" validate:"gte=0"`
	RetentionSource        AssumptionSource `json:"retention_source,omitempty"`
	ContributionMarginPct  *float64         `json:"contribution_margin_pct,omitempty"`

	// Assumptions carries the provenance of upstream inputs, usually the CAC
	// result's disclosure list.
	Assumptions []Assumption `json:"assumptions,omitempty"`
}

type Fundability struct {
	IsFundable bool     `json:"is_fundable"`
	Blockers   []string `json:"blockers"`
	Flags      []string `json:"flags"`
	IsScenario bool     `json:"is_scenario"`
}

type UnitEconomicsResult struct {
	LTV           float64     `json:"ltv"`
	CACRatio      *float64    `json:"cac_ratio"`
	PaybackMonths *float64    `json:"payback_months"`
	Fundability   Fundability `json:"fundability"`
}

package session

import (
	"github.com/mdrashedmamun/smb-coaching-ai/internal/diagnostic"
	"github.com/mdrashedmamun/smb-coaching-ai/internal/economics"
)

// Patches use nil for "keep the current value". A non-nil zero overwrites.

type GoalsPatch struct {
	RevenueGoal    *float64 `json:"revenue_goal,omitempty" validate:"omitempty,gte=0"`
	CurrentRevenue *float64 `json:"current_revenue,omitempty" validate:"omitempty,gte=0"`
	PricePerClient *float64 `json:"price_per_client,omitempty" validate:"omitempty,gte=0"`
	MaxClients     *int     `json:"max_clients,omitempty" validate:"omitempty,gte=0"`
	CloseRate      *float64 `json:"close_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type MetricsPatch struct {
	TotalOutreach  *int `json:"total_outreach,omitempty" validate:"omitempty,gte=0"`
	TotalResponses *int `json:"total_responses,omitempty" validate:"omitempty,gte=0"`
	SalesCalls     *int `json:"sales_calls,omitempty" validate:"omitempty,gte=0"`
	ClientsClosed  *int `json:"clients_closed,omitempty" validate:"omitempty,gte=0"`
	WindowDays     *int `json:"window_days,omitempty" validate:"omitempty,gte=1"`
}

type CACPatch struct {
	Mode                 *economics.CACMode       `json:"mode,omitempty"`
	AdSpend              *economics.CostComponent `json:"ad_spend,omitempty"`
	ContentCost          *economics.CostComponent `json:"content_cost,omitempty"`
	SalesCommission      *economics.CostComponent `json:"sales_commission,omitempty"`
	SalaryAllocation     *economics.CostComponent `json:"salary_allocation,omitempty"`
	ToolsCost            *economics.CostComponent `json:"tools_cost,omitempty"`
	NewCustomersPerMonth *float64                 `json:"new_customers_per_month,omitempty" validate:"omitempty,gte=0"`
}

type PricingPatch struct {
	Price           *float64                    `json:"price,omitempty" validate:"omitempty,gte=0"`
	MarginPct       *float64                    `json:"margin_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	MarginSource    *economics.AssumptionSource `json:"margin_source,omitempty"`
	RetentionMonths *float64                    `json:"retention_months,omitempty" validate:"omitempty,gte=0"`
	RetentionSource *economics.AssumptionSource `json:"retention_source,omitempty"`
}

func MergeGoals(base diagnostic.GoalData, p GoalsPatch) diagnostic.GoalData {
	setFloat(&base.RevenueGoal, p.RevenueGoal)
	setFloat(&base.CurrentRevenue, p.CurrentRevenue)
	setFloat(&base.PricePerClient, p.PricePerClient)
	setInt(&base.MaxClients, p.MaxClients)
	setFloat(&base.CloseRate, p.CloseRate)
	return base
}

func MergeMetrics(base diagnostic.AuditMetrics, p MetricsPatch) diagnostic.AuditMetrics {
	setInt(&base.TotalOutreach, p.TotalOutreach)
	setInt(&base.TotalResponses, p.TotalResponses)
	setInt(&base.SalesCalls, p.SalesCalls)
	setInt(&base.ClientsClosed, p.ClientsClosed)
	setInt(&base.WindowDays, p.WindowDays)
	return base
}

// MergeCACInputs replaces whole cost components. A component patch carries
// both amount and provenance so the two never disagree.
func MergeCACInputs(base economics.CACInputs, p CACPatch) economics.CACInputs {
	if p.Mode != nil {
		base.Mode = *p.Mode
	}
	setComponent(&base.AdSpend, p.AdSpend)
	setComponent(&base.ContentCost, p.ContentCost)
	setComponent(&base.SalesCommission, p.SalesCommission)
	setComponent(&base.SalaryAllocation, p.SalaryAllocation)
	setComponent(&base.ToolsCost, p.ToolsCost)
	setFloat(&base.NewCustomersPerMonth, p.NewCustomersPerMonth)
	return base
}

func MergePricing(base Business, p PricingPatch) Business {
	setFloat(&base.Pricing.Price, p.Price)
	setFloat(&base.Pricing.MarginPct, p.MarginPct)
	if p.MarginSource != nil {
		base.Pricing.MarginSource = *p.MarginSource
	}
	setFloat(&base.RetentionMonths, p.RetentionMonths)
	if p.RetentionSource != nil {
		base.RetentionSource = *p.RetentionSource
	}
	return base
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setComponent(dst *economics.CostComponent, v *economics.CostComponent) {
	if v != nil {
		*dst = *v
	}
}

package offers

type ConstraintType string

const (
	ConstraintLeadFlow         ConstraintType = "lead_flow"
	ConstraintConversion       ConstraintType = "conversion"
	ConstraintDeliveryCapacity ConstraintType = "delivery_capacity"
	ConstraintRetention        ConstraintType = "retention"
)

func (c ConstraintType) Valid() bool {
	switch c {
	case ConstraintLeadFlow, ConstraintConversion, ConstraintDeliveryCapacity, ConstraintRetention:
		return true
	}
	return false
}

type OfferType string

const (
	OfferOneTime      OfferType = "one_time"
	OfferProgram      OfferType = "program"
	OfferRetainer     OfferType = "retainer"
	OfferSubscription OfferType = "subscription"
)

type BillingModel string

const (
	BillingOneTime     BillingModel = "one_time"
	BillingRecurring   BillingModel = "recurring"
	BillingInstallment BillingModel = "installment"
)

type BillingPeriod string

const (
	PeriodMonthly   BillingPeriod = "monthly"
	PeriodQuarterly BillingPeriod = "quarterly"
	PeriodAnnual    BillingPeriod = "annual"
)

type DeliveryModel string

const (
	DeliveryDoneForYou  DeliveryModel = "done_for_you"
	DeliveryDoneWithYou DeliveryModel = "done_with_you"
	DeliveryDIY         DeliveryModel = "diy"
)

type BuyerType string

const (
	BuyerB2B BuyerType = "b2b"
	BuyerB2C BuyerType = "b2c"
)

type Badge string

const (
	BadgeRecommended       Badge = "recommended"
	BadgeStrongAlternative Badge = "strong_alternative"
	BadgeViable            Badge = "viable"
	BadgeDeprioritize      Badge = "deprioritize"
)

const (
	TagHighLeverage        = "High Leverage"
	TagVolumeHeavy         = "Volume Heavy"
	TagExceedsCallCapacity = "Exceeds Call Capacity"
)

// Offer is a priced product in the founder's portfolio. MarginPct is derived
// from Price and DeliveryCost; use WithPrice and WithDeliveryCost to change
// either so the margin is never stale.
type Offer struct {
	ID            string        `json:"id" validate:"required"`
	Name          string        `json:"name" validate:"required"`
	Price         float64       `json:"price" validate:"gte=0"`
	Type          OfferType     `json:"type,omitempty"`
	BillingModel  BillingModel  `json:"billing_model,omitempty"`
	BillingPeriod BillingPeriod `json:"billing_period,omitempty"`
	DeliveryModel DeliveryModel `json:"delivery_model,omitempty"`
	BuyerType     BuyerType     `json:"buyer_type,omitempty"`
	DeliveryCost  *float64      `json:"delivery_cost,omitempty" validate:"omitempty,gte=0"`
	MarginPct     *float64      `json:"margin_pct,omitempty"`
	DealsPerMonth int           `json:"deals_per_month" validate:"gte=0"`
	Primary       bool          `json:"primary,omitempty"`
}

type ScoringContext struct {
	RevenueGap float64        `json:"revenue_gap"`
	Constraint ConstraintType `json:"constraint" validate:"omitempty,oneof=lead_flow conversion delivery_capacity retention"`

	// CloseRate is a measured close percentage. Nil means unknown, and calls
	// are not projected.
	CloseRate          *float64 `json:"close_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	WeeklyCallCapacity float64  `json:"weekly_call_capacity" validate:"gte=0"`
	Portfolio          []Offer  `json:"portfolio,omitempty"`
}

type ScoredOffer struct {
	Offer        Offer    `json:"offer"`
	Score        int      `json:"score"`
	Badge        Badge    `json:"badge"`
	DealsByMonth int      `json:"deals_by_month"`
	CallsByMonth *int     `json:"calls_by_month"`
	Tags         []string `json:"tags"`
}

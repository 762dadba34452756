package diagnostic

import "errors"

const Disclaimer = "This is an automated, rule-based audit of the numbers you entered, not financial advice. " +
	"The verdict names the single stage most likely to be limiting revenue right now."

// DefaultWindowDays is the observation window the funnel counts are collected over.
const DefaultWindowDays = 7

type BottleneckType string

const (
	BottleneckVolumeOutreach BottleneckType = "volume_outreach"
	BottleneckVolumeFollowup BottleneckType = "volume_followup"
	BottleneckSkillMessaging BottleneckType = "skill_messaging"
	BottleneckSkillSales     BottleneckType = "skill_sales"
	BottleneckPrice          BottleneckType = "price"
	BottleneckCapacity       BottleneckType = "capacity"
)

// AllBottlenecks lists every bottleneck in catalog order.
var AllBottlenecks = []BottleneckType{
	BottleneckVolumeOutreach,
	BottleneckVolumeFollowup,
	BottleneckSkillMessaging,
	BottleneckSkillSales,
	BottleneckPrice,
	BottleneckCapacity,
}

func (b BottleneckType) Valid() bool {
	switch b {
	case BottleneckVolumeOutreach, BottleneckVolumeFollowup, BottleneckSkillMessaging,
		BottleneckSkillSales, BottleneckPrice, BottleneckCapacity:
		return true
	}
	return false
}

type SoftBottleneck string

const (
	SoftTime      SoftBottleneck = "time"
	SoftEnergy    SoftBottleneck = "energy"
	SoftAttention SoftBottleneck = "attention"
	SoftEffort    SoftBottleneck = "effort"
	SoftBelief    SoftBottleneck = "belief"
)

func (s SoftBottleneck) Valid() bool {
	switch s {
	case SoftTime, SoftEnergy, SoftAttention, SoftEffort, SoftBelief:
		return true
	}
	return false
}

type Timeframe string

const (
	TimeframeThisWeek Timeframe = "this_week"
	TimeframeByFriday Timeframe = "by_friday"
)

var (
	ErrSoftBottleneckAlreadySet = errors.New("soft bottleneck already attached to verdict")
	ErrUnknownSoftBottleneck    = errors.New("unknown soft bottleneck")
)

type AuditMetrics struct {
	TotalOutreach  int `json:"total_outreach" validate:"gte=0"`
	TotalResponses int `json:"total_responses" validate:"gte=0"`
	SalesCalls     int `json:"sales_calls" validate:"gte=0"`
	ClientsClosed  int `json:"clients_closed" validate:"gte=0"`
	WindowDays     int `json:"window_days,omitempty" validate:"gte=0"`
}

type GoalData struct {
	RevenueGoal    float64 `json:"revenue_goal" validate:"gte=0"`
	CurrentRevenue float64 `json:"current_revenue" validate:"gte=0"`
	PricePerClient float64 `json:"price_per_client" validate:"gte=0"`
	MaxClients     int     `json:"max_clients" validate:"gte=0"`
	CloseRate      float64 `json:"close_rate" validate:"gte=0,lte=100"`
}

type ModelPlayOut struct {
	CurrentRevenue              float64 `json:"current_revenue"`
	GoalRevenue                 float64 `json:"goal_revenue"`
	Gap                         float64 `json:"gap"`
	ClientsNeededAtCurrentPrice int     `json:"clients_needed_at_current_price"`
	IsSustainable               bool    `json:"is_sustainable"`
}

type Prescription struct {
	Action      string    `json:"action"`
	Quantity    int       `json:"quantity"`
	Timeframe   Timeframe `json:"timeframe"`
	Explanation string    `json:"explanation"`
}

type Verdict struct {
	Bottleneck     BottleneckType  `json:"bottleneck"`
	SoftBottleneck *SoftBottleneck `json:"soft_bottleneck"`
	Prescription   Prescription    `json:"prescription"`
	Model          ModelPlayOut    `json:"model"`
	Metrics        AuditMetrics    `json:"metrics"`
	Goals          GoalData        `json:"goals"`
}

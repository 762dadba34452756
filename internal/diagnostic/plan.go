package diagnostic

import (
	"errors"
	"fmt"
)

// ErrPlanGeneration carries the literal message shown when a plan cannot be built.
var ErrPlanGeneration = errors.New("We couldn't build your plan. Please go back and try again.")

// callBenchmarkRate is the share of leads that should turn into booked calls.
const callBenchmarkRate = 0.15

type PlanMetrics struct {
	Leads          int     `json:"leads" validate:"gte=0"`
	SalesCalls     int     `json:"sales_calls" validate:"gte=0"`
	ClientsClosed  int     `json:"clients_closed" validate:"gte=0"`
	PricePerClient float64 `json:"price_per_client" validate:"gte=0"`
	CloseRate      float64 `json:"close_rate" validate:"gte=0,lte=100"`
}

type PlanDay struct {
	Day   int      `json:"day"`
	Title string   `json:"title"`
	Tasks []string `json:"tasks"`
}

type GeneratedPlan struct {
	Bottleneck     BottleneckType `json:"bottleneck"`
	SoftBottleneck SoftBottleneck `json:"soft_bottleneck"`
	Headline       string         `json:"headline"`
	Diagnosis      string         `json:"diagnosis"`
	Days           []PlanDay      `json:"days"`
	MissingCalls   int            `json:"missing_calls"`
	LostRevenue    float64        `json:"lost_revenue"`
}

// PlanMetricsFromVerdict derives plan inputs from an audit verdict.
func PlanMetricsFromVerdict(v Verdict) PlanMetrics {
	return PlanMetrics{
		Leads:          v.Metrics.TotalResponses,
		SalesCalls:     v.Metrics.SalesCalls,
		ClientsClosed:  v.Metrics.ClientsClosed,
		PricePerClient: v.Goals.PricePerClient,
		CloseRate:      v.Goals.CloseRate,
	}
}

// MissedCalls compares booked calls against the benchmark share of leads and
// prices the shortfall at the stated close rate.
func MissedCalls(m PlanMetrics) (int, float64) {
	expected := ceilCount(float64(m.Leads) * callBenchmarkRate)
	missing := expected - m.SalesCalls
	if missing < 0 {
		missing = 0
	}
	lost := float64(missing) * (m.CloseRate / 100) * m.PricePerClient
	return missing, lost
}

func GeneratePlan(b BottleneckType, soft SoftBottleneck, m PlanMetrics) (GeneratedPlan, error) {
	if !soft.Valid() {
		return GeneratedPlan{}, fmt.Errorf("%w (soft bottleneck %q)", ErrPlanGeneration, soft)
	}
	rx := GetPrescription(b)
	missing, lost := MissedCalls(m)
	plan := GeneratedPlan{
		Bottleneck:     b,
		SoftBottleneck: soft,
		MissingCalls:   missing,
		LostRevenue:    lost,
	}
	task := fmt.Sprintf("%s (%d)", rx.Action, rx.Quantity)

	switch soft {
	case SoftTime:
		plan.Headline = "You don't need more hours. You need one protected block."
		if b == BottleneckVolumeOutreach || b == BottleneckVolumeFollowup {
			plan.Diagnosis = fmt.Sprintf("Volume is the constraint and time is the excuse. At the benchmark of %.0f%% of leads booking a call, you are short %d calls.", callBenchmarkRate*100, missing)
			plan.Days = []PlanDay{
				{Day: 1, Title: "Block the time", Tasks: []string{"Put a daily 30-minute outreach block on your calendar for the next 3 days", "Prepare your list of prospects before the first block"}},
				{Day: 2, Title: "Work the block", Tasks: []string{task, "Stop when the 30 minutes end, even if unfinished"}},
				{Day: 3, Title: "Count and repeat", Tasks: []string{"Count messages sent and replies received", "Book the same block for next week"}},
			}
		} else {
			plan.Diagnosis = "The fix here is not volume, so it fits in less time than you think. Give it one focused session."
			plan.Days = []PlanDay{
				{Day: 1, Title: "Schedule one focused session", Tasks: []string{"Book a single 60-minute session this week", "Write down the one outcome the session must produce"}},
				{Day: 2, Title: "Do the work", Tasks: []string{task}},
				{Day: 3, Title: "Review", Tasks: []string{"Write what changed and what you will keep doing"}},
			}
		}
	case SoftEnergy:
		plan.Headline = "Do the hard part when you have the most energy."
		plan.Diagnosis = "Low energy pushes revenue work to the end of the day, where it never happens. Move it to the front."
		plan.Days = []PlanDay{
			{Day: 1, Title: "Find your peak", Tasks: []string{"Note the two hours of the day you feel sharpest", "Move one revenue task into that window tomorrow"}},
			{Day: 2, Title: "First thing first", Tasks: []string{task + " before checking email"}},
			{Day: 3, Title: "Protect the window", Tasks: []string{"Decline or move one meeting that sits in your peak hours"}},
		}
	case SoftAttention:
		plan.Headline = "One bottleneck. One task. Ignore the rest for 3 days."
		plan.Diagnosis = "Spreading effort across every part of the business means none of it gets enough to move."
		plan.Days = []PlanDay{
			{Day: 1, Title: "Write it down", Tasks: []string{"Write the single prescribed task on paper and keep it visible", "List everything you are choosing not to do this week"}},
			{Day: 2, Title: "Single focus", Tasks: []string{task, "Turn off notifications while you work on it"}},
			{Day: 3, Title: "Check", Tasks: []string{"Did you finish? If not, what pulled you away?"}},
		}
	case SoftEffort:
		plan.Headline = "Make the task smaller, not optional."
		plan.Diagnosis = "The task feels bigger than it is. Break it into pieces small enough that starting is easy."
		plan.Days = []PlanDay{
			{Day: 1, Title: "Break it down", Tasks: []string{"Split the task into three pieces you can each finish in under 20 minutes"}},
			{Day: 2, Title: "Start with the smallest piece", Tasks: []string{"Finish the first piece", "Start the second"}},
			{Day: 3, Title: "Finish", Tasks: []string{task}},
		}
	case SoftBelief:
		plan.Headline = "The numbers say it works. Test it before you decide it doesn't."
		plan.Diagnosis = fmt.Sprintf("Doubt is cheaper than data. You are leaving about $%.0f on the table from %d missing calls.", lost, missing)
		plan.Days = []PlanDay{
			{Day: 1, Title: "Write the prediction", Tasks: []string{"Write down what you expect will happen if you do the task"}},
			{Day: 2, Title: "Run the test", Tasks: []string{task}},
			{Day: 3, Title: "Compare", Tasks: []string{"Compare the result to your prediction", "Decide based on the result, not the fear"}},
		}
	default:
		return GeneratedPlan{}, ErrPlanGeneration
	}
	return plan, nil
}

package offers

// PrimaryAnswer is the direct "what is holding you back" question.
type PrimaryAnswer string

const (
	PrimaryNotEnoughLeads   PrimaryAnswer = "not_enough_leads"
	PrimaryLeadsDontBuy     PrimaryAnswer = "leads_dont_buy"
	PrimaryTooBusyToDeliver PrimaryAnswer = "too_busy_to_deliver"
	PrimaryClientsDontStay  PrimaryAnswer = "clients_dont_stay"
	PrimaryNotSure          PrimaryAnswer = "not_sure"
)

// RefinedAnswer follows up "not sure": if leads doubled tomorrow, what breaks?
type RefinedAnswer string

const (
	RefinedCouldntDeliver RefinedAnswer = "couldnt_deliver"
	RefinedWouldntClose   RefinedAnswer = "wouldnt_close"
	RefinedNothingBreaks  RefinedAnswer = "nothing_breaks"
	RefinedNotSure        RefinedAnswer = "not_sure"
)

type RepeatAnswer string

const (
	RepeatOften     RepeatAnswer = "often"
	RepeatSometimes RepeatAnswer = "sometimes"
	RepeatRarely    RepeatAnswer = "rarely"
)

type Survey struct {
	Primary        PrimaryAnswer `json:"primary,omitempty"`
	Refined        RefinedAnswer `json:"refined,omitempty"`
	RepeatPurchase RepeatAnswer  `json:"repeat_purchase,omitempty"`
}

var primaryConstraints = map[PrimaryAnswer]ConstraintType{
	PrimaryNotEnoughLeads:   ConstraintLeadFlow,
	PrimaryLeadsDontBuy:     ConstraintConversion,
	PrimaryTooBusyToDeliver: ConstraintDeliveryCapacity,
	PrimaryClientsDontStay:  ConstraintRetention,
}

var refinedConstraints = map[RefinedAnswer]ConstraintType{
	RefinedCouldntDeliver: ConstraintDeliveryCapacity,
	RefinedWouldntClose:   ConstraintConversion,
	RefinedNothingBreaks:  ConstraintLeadFlow,
}

// InferConstraint maps survey answers to a constraint. A direct answer wins,
// then the refined follow-up, then a weak repeat-purchase signal. Anything
// else is lead_flow.
func InferConstraint(s Survey) ConstraintType {
	if c, ok := primaryConstraints[s.Primary]; ok {
		return c
	}
	if c, ok := refinedConstraints[s.Refined]; ok {
		return c
	}
	if s.RepeatPurchase == RepeatRarely {
		return ConstraintRetention
	}
	return ConstraintLeadFlow
}

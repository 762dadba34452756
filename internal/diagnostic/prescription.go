package diagnostic

import "math"

// MinPrescriptionQuantity is the floor of the escalation ladder.
const MinPrescriptionQuantity = 5

var prescriptionCatalog = map[BottleneckType]Prescription{
	BottleneckVolumeOutreach: {
		Action:      "Send personalized outreach messages to new prospects",
		Quantity:    50,
		Timeframe:   TimeframeThisWeek,
		Explanation: "Not enough conversations are starting. Nothing downstream can work until more people hear from you.",
	},
	BottleneckVolumeFollowup: {
		Action:      "Follow up with leads who replied and invite each one to a call",
		Quantity:    20,
		Timeframe:   TimeframeThisWeek,
		Explanation: "People are responding but nobody is being booked. The leads already exist; they need a next step.",
	},
	BottleneckSkillMessaging: {
		Action:      "Send a rewritten opening message to fresh prospects",
		Quantity:    30,
		Timeframe:   TimeframeThisWeek,
		Explanation: "You have enough volume to prove the message is not landing. Change the words, not the amount.",
	},
	BottleneckSkillSales: {
		Action:      "Run sales calls with a written close: state the price and ask for the decision",
		Quantity:    5,
		Timeframe:   TimeframeByFriday,
		Explanation: "Calls are happening but none convert. Closing is the step that is failing.",
	},
	BottleneckPrice: {
		Action:      "Quote a higher price on your next proposals",
		Quantity:    5,
		Timeframe:   TimeframeByFriday,
		Explanation: "Your numbers say you are closing too easily or charging too little to reach the goal with the clients you can serve.",
	},
	BottleneckCapacity: {
		Action:      "List delivery tasks you can systemize, template, or hand off",
		Quantity:    10,
		Timeframe:   TimeframeByFriday,
		Explanation: "The goal needs more clients than you can deliver for. Free up delivery time before adding demand.",
	},
}

// GetPrescription returns the fixed action for a bottleneck. Unknown values
// fall back to the volume_outreach entry.
func GetPrescription(b BottleneckType) Prescription {
	if p, ok := prescriptionCatalog[b]; ok {
		return p
	}
	return prescriptionCatalog[BottleneckVolumeOutreach]
}

// GetEscalatedPrescription returns a new, smaller prescription after the
// founder skipped the original skipCount times. Quantity never rises above
// the original and never falls under MinPrescriptionQuantity.
func GetEscalatedPrescription(original Prescription, skipCount int) Prescription {
	if skipCount <= 0 {
		return original
	}
	out := original
	switch skipCount {
	case 1:
		out.Quantity = int(math.Ceil(float64(original.Quantity) / 2))
		out.Explanation = "Last week's target was too big. Here is half of it. Smaller is fine, zero is not."
	case 2:
		out.Quantity = MinPrescriptionQuantity
		out.Explanation = "Two weeks skipped. The target is now the smallest step that still moves anything: just " +
			"do these few and report back."
	default:
		out.Quantity = MinPrescriptionQuantity
		out.Explanation = "This has been skipped three or more times. The number will not go lower. " +
			"The blocker is not the size of the task; name what is actually stopping you."
	}
	if out.Quantity < MinPrescriptionQuantity {
		out.Quantity = MinPrescriptionQuantity
	}
	if out.Quantity > original.Quantity {
		out.Quantity = original.Quantity
	}
	return out
}

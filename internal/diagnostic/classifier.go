package diagnostic

const (
	messagingVolumeFloor      = 50
	weakResponseVolumeFloor   = 20
	weakResponseRatePct       = 2.0
	followupResponseFloor     = 10
	salesCallFloor            = 5
	underpricedCloseRatePct   = 60.0
	priceFloorPerClient       = 4000.0
	unsustainablePriceCeiling = 5000.0
)

// ResponseRate returns responses as a percentage of outreach, or 0 when
// there was no outreach.
func ResponseRate(m AuditMetrics) float64 {
	if m.TotalOutreach <= 0 {
		return 0
	}
	return float64(m.TotalResponses) / float64(m.TotalOutreach) * 100
}

// IdentifyBottleneck walks an ordered rule list and returns the first match.
// Rules that need the least evidence come first; the order is load-bearing
// for boundary inputs.
func IdentifyBottleneck(m AuditMetrics, goals GoalData) BottleneckType {
	if m.TotalOutreach == 0 && m.TotalResponses == 0 {
		return BottleneckVolumeOutreach
	}
	if m.TotalOutreach >= messagingVolumeFloor && m.TotalResponses == 0 {
		return BottleneckSkillMessaging
	}
	if m.TotalOutreach >= weakResponseVolumeFloor && ResponseRate(m) < weakResponseRatePct && m.TotalOutreach > m.TotalResponses {
		return BottleneckSkillMessaging
	}
	// Ignores outreach, so inbound leads nobody books also land here.
	if m.TotalResponses >= followupResponseFloor && m.SalesCalls == 0 {
		return BottleneckVolumeFollowup
	}
	if m.SalesCalls >= salesCallFloor && m.ClientsClosed == 0 {
		return BottleneckSkillSales
	}
	if goals.CloseRate >= underpricedCloseRatePct {
		return BottleneckPrice
	}
	if goals.PricePerClient < priceFloorPerClient {
		return BottleneckPrice
	}
	model := CalculateModel(goals)
	if !model.IsSustainable {
		if goals.PricePerClient < unsustainablePriceCeiling {
			return BottleneckPrice
		}
		return BottleneckCapacity
	}
	return BottleneckVolumeOutreach
}

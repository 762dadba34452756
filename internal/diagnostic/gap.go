package diagnostic

import "math"

// CalculateModel projects how many clients at the current price close the
// gap between current and goal revenue. A zero price yields zero clients
// needed instead of dividing by zero.
func CalculateModel(goals GoalData) ModelPlayOut {
	gap := goals.RevenueGoal - goals.CurrentRevenue
	needed := 0
	if goals.PricePerClient > 0 && gap > 0 {
		needed = ceilCount(gap / goals.PricePerClient)
	}
	return ModelPlayOut{
		CurrentRevenue:              goals.CurrentRevenue,
		GoalRevenue:                 goals.RevenueGoal,
		Gap:                         gap,
		ClientsNeededAtCurrentPrice: needed,
		IsSustainable:               needed <= goals.MaxClients,
	}
}

// ceilCount rounds a projected count up, capped at MaxInt32 so absurd inputs
// stay unsustainable instead of overflowing.
func ceilCount(x float64) int {
	c := math.Ceil(x)
	if !(c < math.MaxInt32) {
		return math.MaxInt32
	}
	return int(c)
}

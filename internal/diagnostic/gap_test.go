package diagnostic

import (
	"math"
	"testing"
)

func TestCalculateModelConcreteScenario(t *testing.T) {
	got := CalculateModel(GoalData{RevenueGoal: 50000, CurrentRevenue: 10000, PricePerClient: 5000, MaxClients: 10, CloseRate: 35})
	if got.Gap != 40000 {
		t.Fatalf("unexpected gap: got=%f want=40000", got.Gap)
	}
	if got.ClientsNeededAtCurrentPrice != 8 {
		t.Fatalf("unexpected clients needed: got=%d want=8", got.ClientsNeededAtCurrentPrice)
	}
	if !got.IsSustainable {
		t.Fatal("expected model to be sustainable")
	}
}

func TestCalculateModelRoundsPartialClientsUp(t *testing.T) {
	got := CalculateModel(GoalData{RevenueGoal: 21500, CurrentRevenue: 0, PricePerClient: 5000, MaxClients: 4})
	if got.ClientsNeededAtCurrentPrice != 5 {
		t.Fatalf("expected 4.3 clients to round up to 5, got %d", got.ClientsNeededAtCurrentPrice)
	}
	if got.IsSustainable {
		t.Fatal("5 clients against capacity 4 should not be sustainable")
	}
}

func TestCalculateModelZeroPriceDoesNotDivide(t *testing.T) {
	got := CalculateModel(GoalData{RevenueGoal: 10000, PricePerClient: 0, MaxClients: 0})
	if got.ClientsNeededAtCurrentPrice != 0 {
		t.Fatalf("expected 0 clients at zero price, got %d", got.ClientsNeededAtCurrentPrice)
	}
	if !got.IsSustainable {
		t.Fatal("0 clients needed should be sustainable")
	}
}

func TestCalculateModelGoalAlreadyMet(t *testing.T) {
	got := CalculateModel(GoalData{RevenueGoal: 10000, CurrentRevenue: 15000, PricePerClient: 2000, MaxClients: 1})
	if got.Gap != -5000 {
		t.Fatalf("expected negative gap, got %f", got.Gap)
	}
	if got.ClientsNeededAtCurrentPrice != 0 || !got.IsSustainable {
		t.Fatalf("expected no clients needed and sustainable, got %+v", got)
	}
}

func TestCalculateModelMonotonicInGap(t *testing.T) {
	prev := -1
	for goal := 0.0; goal <= 100000; goal += 750 {
		got := CalculateModel(GoalData{RevenueGoal: goal, PricePerClient: 3300, MaxClients: 100})
		if got.ClientsNeededAtCurrentPrice < prev {
			t.Fatalf("clients needed decreased at goal %.0f: %d < %d", goal, got.ClientsNeededAtCurrentPrice, prev)
		}
		prev = got.ClientsNeededAtCurrentPrice
	}
}

func TestCalculateModelCapsHugeGap(t *testing.T) {
	got := CalculateModel(GoalData{RevenueGoal: 1e20, PricePerClient: 1, MaxClients: 10})
	if got.ClientsNeededAtCurrentPrice != math.MaxInt32 {
		t.Fatalf("unexpected clients needed: got=%d want=%d", got.ClientsNeededAtCurrentPrice, math.MaxInt32)
	}
	if got.IsSustainable {
		t.Fatal("expected a huge gap to be unsustainable")
	}
}

package diagnostic

import "testing"

func TestGetPrescriptionCoversEveryBottleneck(t *testing.T) {
	for _, b := range AllBottlenecks {
		p := GetPrescription(b)
		if p.Action == "" || p.Explanation == "" {
			t.Fatalf("%s: empty prescription", b)
		}
		if p.Quantity < MinPrescriptionQuantity {
			t.Fatalf("%s: catalog quantity %d below escalation floor", b, p.Quantity)
		}
		if p.Timeframe != TimeframeThisWeek && p.Timeframe != TimeframeByFriday {
			t.Fatalf("%s: unexpected timeframe %q", b, p.Timeframe)
		}
	}
}

func TestGetPrescriptionUnknownFallsBackToOutreach(t *testing.T) {
	got := GetPrescription(BottleneckType("mystery"))
	want := GetPrescription(BottleneckVolumeOutreach)
	if got != want {
		t.Fatalf("unexpected fallback: got=%+v want=%+v", got, want)
	}
}

func TestGetEscalatedPrescriptionLadder(t *testing.T) {
	orig := GetPrescription(BottleneckVolumeOutreach)
	one := GetEscalatedPrescription(orig, 1)
	two := GetEscalatedPrescription(orig, 2)
	three := GetEscalatedPrescription(orig, 3)
	nine := GetEscalatedPrescription(orig, 9)

	if one.Quantity != 25 {
		t.Fatalf("expected half of 50, got %d", one.Quantity)
	}
	if two.Quantity != MinPrescriptionQuantity || three.Quantity != MinPrescriptionQuantity || nine.Quantity != MinPrescriptionQuantity {
		t.Fatalf("expected ladder to hold at %d: %d %d %d", MinPrescriptionQuantity, two.Quantity, three.Quantity, nine.Quantity)
	}
	if one.Explanation == two.Explanation || two.Explanation == three.Explanation {
		t.Fatal("expected each rung to carry a different explanation")
	}
	if orig.Quantity != 50 {
		t.Fatalf("escalation mutated the original: %d", orig.Quantity)
	}
	if one.Action != orig.Action || one.Timeframe != orig.Timeframe {
		t.Fatal("escalation should keep action and timeframe")
	}
}

func TestGetEscalatedPrescriptionMonotonicAndFloored(t *testing.T) {
	for _, b := range AllBottlenecks {
		orig := GetPrescription(b)
		prev := orig.Quantity
		for skip := 1; skip <= 5; skip++ {
			got := GetEscalatedPrescription(orig, skip)
			if got.Quantity > prev {
				t.Fatalf("%s skip %d: quantity increased %d > %d", b, skip, got.Quantity, prev)
			}
			if got.Quantity < MinPrescriptionQuantity {
				t.Fatalf("%s skip %d: quantity %d below floor", b, skip, got.Quantity)
			}
			prev = got.Quantity
		}
	}
}

func TestGetEscalatedPrescriptionRoundsHalfUp(t *testing.T) {
	got := GetEscalatedPrescription(Prescription{Action: "x", Quantity: 21}, 1)
	if got.Quantity != 11 {
		t.Fatalf("expected ceil(21/2)=11, got %d", got.Quantity)
	}
	got = GetEscalatedPrescription(Prescription{Action: "x", Quantity: 7}, 1)
	if got.Quantity != 5 {
		t.Fatalf("expected floor of 5, got %d", got.Quantity)
	}
}

func TestGetEscalatedPrescriptionZeroSkipsIsIdentity(t *testing.T) {
	orig := GetPrescription(BottleneckSkillMessaging)
	if got := GetEscalatedPrescription(orig, 0); got != orig {
		t.Fatalf("expected unchanged prescription, got %+v", got)
	}
}

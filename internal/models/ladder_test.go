package models

import (
	"fmt"
	"testing"
)

func TestLadderForPoints_Shape(t *testing.T) {
	ladder := LadderForPoints()

	if len(ladder) != 41 {
		t.Fatalf("Points ladder should have 41 entries, got %d", len(ladder))
	}

	if ladder[0].Label != "ITM20" || ladder[0].Value != -20 {
		t.Errorf("First entry should be ITM20/-20, got %s/%v", ladder[0].Label, ladder[0].Value)
	}
	if ladder[20].Label != ATMLabel || ladder[20].Value != 0 {
		t.Errorf("Center entry should be ATM/0, got %s/%v", ladder[20].Label, ladder[20].Value)
	}
	if ladder[40].Label != "OTM20" || ladder[40].Value != 20 {
		t.Errorf("Last entry should be OTM20/20, got %s/%v", ladder[40].Label, ladder[40].Value)
	}

	// Numbering must increase moving away from ATM on both sides.
	for i := 0; i < 20; i++ {
		wantITM := fmt.Sprintf("ITM%d", 20-i)
		if ladder[i].Label != wantITM {
			t.Errorf("Entry %d should be %s, got %s", i, wantITM, ladder[i].Label)
		}
		wantOTM := fmt.Sprintf("OTM%d", i+1)
		if ladder[21+i].Label != wantOTM {
			t.Errorf("Entry %d should be %s, got %s", 21+i, wantOTM, ladder[21+i].Label)
		}
	}

	// Values must be strictly increasing across the whole ladder.
	for i := 1; i < len(ladder); i++ {
		if ladder[i].Value <= ladder[i-1].Value {
			t.Errorf("Values should increase at %d: %v then %v", i, ladder[i-1].Value, ladder[i].Value)
		}
	}
}

func TestLadderForPercent_Shape(t *testing.T) {
	ladder := LadderForPercent()

	if len(ladder) != 81 {
		t.Fatalf("Percent ladder should have 81 entries, got %d", len(ladder))
	}

	if ladder[0].Label != "ATM+10.00%" || ladder[0].Value != 10 {
		t.Errorf("First entry should be ATM+10.00%%/10, got %s/%v", ladder[0].Label, ladder[0].Value)
	}
	// ATM sits at 1-indexed position 41.
	if ladder[40].Label != ATMLabel || ladder[40].Value != 0 {
		t.Errorf("Entry 41 should be ATM/0, got %s/%v", ladder[40].Label, ladder[40].Value)
	}
	if ladder[80].Label != "ATM-10.00%" || ladder[80].Value != -10 {
		t.Errorf("Last entry should be ATM-10.00%%/-10, got %s/%v", ladder[80].Label, ladder[80].Value)
	}

	// Spot-check quarter-point label formatting around the anchor.
	checks := map[int]string{
		30: "ATM+2.50%",
		39: "ATM+0.25%",
		41: "ATM-0.25%",
		43: "ATM-0.75%",
		71: "ATM-7.75%",
	}
	for i, want := range checks {
		if ladder[i].Label != want {
			t.Errorf("Entry %d should be %s, got %s", i, want, ladder[i].Label)
		}
	}
}

func TestLadders_NoDuplicateLabels(t *testing.T) {
	for _, method := range []SelectionMethod{SelectionATMPoints, SelectionATMPercent} {
		ladder := LadderForMethod(method)
		seen := make(map[string]bool, len(ladder))
		atmCount := 0
		for _, e := range ladder {
			if seen[e.Label] {
				t.Errorf("%s ladder has duplicate label %s", method, e.Label)
			}
			seen[e.Label] = true
			if e.Label == ATMLabel {
				atmCount++
			}
		}
		if atmCount != 1 {
			t.Errorf("%s ladder should have exactly one ATM entry, got %d", method, atmCount)
		}
	}
}

func TestLadderForMethod_PremiumMethodsEmpty(t *testing.T) {
	if got := LadderForMethod(SelectionClosestPremium); len(got) != 0 {
		t.Errorf("CLOSEST_PREMIUM should have an empty ladder, got %d entries", len(got))
	}
	if got := LadderForMethod(SelectionClosestStraddlePremium); len(got) != 0 {
		t.Errorf("CLOSEST_STRADDLE_PREMIUM should have an empty ladder, got %d entries", len(got))
	}
	if got := LadderForMethod(SelectionMethod("BOGUS")); len(got) != 0 {
		t.Errorf("Unknown method should have an empty ladder, got %d entries", len(got))
	}
}

func TestLadderContains(t *testing.T) {
	tests := []struct {
		method SelectionMethod
		label  string
		want   bool
	}{
		{SelectionATMPoints, "ATM", true},
		{SelectionATMPoints, "ITM20", true},
		{SelectionATMPoints, "OTM20", true},
		{SelectionATMPoints, "ITM21", false},
		{SelectionATMPoints, "ATM+2.50%", false},
		{SelectionATMPercent, "ATM+2.50%", true},
		{SelectionATMPercent, "ATM-10.00%", true},
		{SelectionATMPercent, "ATM+10.25%", false},
		{SelectionATMPercent, "ITM5", false},
		{SelectionClosestPremium, "ATM", false},
		{SelectionClosestStraddlePremium, "ATM", false},
	}
	for _, tt := range tests {
		if got := LadderContains(tt.method, tt.label); got != tt.want {
			t.Errorf("LadderContains(%s, %q) = %v, want %v", tt.method, tt.label, got, tt.want)
		}
	}
}

func TestDefaultSelectorForMethod(t *testing.T) {
	tests := []struct {
		method SelectionMethod
		want   string
	}{
		{SelectionATMPoints, "ATM"},
		{SelectionATMPercent, "ATM"},
		{SelectionClosestPremium, ""},
		{SelectionClosestStraddlePremium, ""},
	}
	for _, tt := range tests {
		if got := DefaultSelectorForMethod(tt.method); got != tt.want {
			t.Errorf("DefaultSelectorForMethod(%s) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestSelectionMethod_Classification(t *testing.T) {
	for _, m := range []SelectionMethod{SelectionATMPoints, SelectionATMPercent,
		SelectionClosestPremium, SelectionClosestStraddlePremium} {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if SelectionMethod("FIXED_STRIKE").Valid() {
		t.Error("Unknown method should not be valid")
	}
	if !SelectionATMPoints.UsesLadder() || !SelectionATMPercent.UsesLadder() {
		t.Error("ATM methods should use a ladder")
	}
	if SelectionClosestPremium.UsesLadder() || SelectionClosestStraddlePremium.UsesLadder() {
		t.Error("Premium methods should not use a ladder")
	}
}

func TestLadder_Deterministic(t *testing.T) {
	a, b := LadderForPercent(), LadderForPercent()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Percent ladder should be deterministic, entry %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

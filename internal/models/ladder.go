package models

import "fmt"

// SelectionMethod determines how a leg's strike is chosen at order time.
type SelectionMethod string

const (
	// SelectionATMPoints picks a strike a fixed number of steps from ATM.
	SelectionATMPoints SelectionMethod = "ATM_POINTS"
	// SelectionATMPercent picks a strike a fixed percentage from ATM.
	SelectionATMPercent SelectionMethod = "ATM_PERCENT"
	// SelectionClosestPremium picks the strike whose premium is closest to
	// the configured criterion.
	SelectionClosestPremium SelectionMethod = "CLOSEST_PREMIUM"
	// SelectionClosestStraddlePremium picks the strike whose combined
	// call+put premium is closest to the configured criterion.
	SelectionClosestStraddlePremium SelectionMethod = "CLOSEST_STRADDLE_PREMIUM"
)

// Valid reports whether m is one of the defined selection methods.
func (m SelectionMethod) Valid() bool {
	switch m {
	case SelectionATMPoints, SelectionATMPercent, SelectionClosestPremium, SelectionClosestStraddlePremium:
		return true
	default:
		return false
	}
}

// UsesLadder reports whether m selects from a label ladder. The premium
// methods select against live premiums downstream and carry a single
// numeric criterion instead.
func (m SelectionMethod) UsesLadder() bool {
	return m == SelectionATMPoints || m == SelectionATMPercent
}

// ATMLabel anchors every ladder; it is also the selector every ladder
// method resets to when the method changes.
const ATMLabel = "ATM"

const (
	// pointLadderDepth is the number of strikes on each side of ATM in the
	// points ladder.
	pointLadderDepth = 20
	// percentQuarterSteps is the number of 0.25% steps on each side of ATM
	// in the percent ladder (10% at 0.25% per step).
	percentQuarterSteps = 40
)

// LadderEntry is one selectable strike position. Value is the signed
// distance from ATM (steps for the points ladder, percent for the percent
// ladder, ITM negative); Label is the stable key stored on the leg. Labels
// never carry numeric strikes; resolution against a real option chain
// happens downstream at order time.
type LadderEntry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// LadderForPoints returns the ATM_POINTS ladder in display order:
// ITM20 .. ITM1, ATM, OTM1 .. OTM20.
func LadderForPoints() []LadderEntry {
	entries := make([]LadderEntry, 0, 2*pointLadderDepth+1)
	for i := pointLadderDepth; i >= 1; i-- {
		entries = append(entries, LadderEntry{Label: fmt.Sprintf("ITM%d", i), Value: -float64(i)})
	}
	entries = append(entries, LadderEntry{Label: ATMLabel})
	for i := 1; i <= pointLadderDepth; i++ {
		entries = append(entries, LadderEntry{Label: fmt.Sprintf("OTM%d", i), Value: float64(i)})
	}
	return entries
}

// LadderForPercent returns the ATM_PERCENT ladder in display order:
// ATM+10.00% .. ATM+0.25%, ATM, ATM-0.25% .. ATM-10.00%. The loop counts
// quarter-points as integers and labels are formatted from integer
// division, so repeated float addition can never skew or duplicate a
// label.
func LadderForPercent() []LadderEntry {
	entries := make([]LadderEntry, 0, 2*percentQuarterSteps+1)
	for q := percentQuarterSteps; q >= 1; q-- {
		entries = append(entries, LadderEntry{Label: percentLabel('+', q), Value: float64(q) * 0.25})
	}
	entries = append(entries, LadderEntry{Label: ATMLabel})
	for q := 1; q <= percentQuarterSteps; q++ {
		entries = append(entries, LadderEntry{Label: percentLabel('-', q), Value: -float64(q) * 0.25})
	}
	return entries
}

// percentLabel renders a quarter-point count as a two-decimal percent
// label, e.g. ('+', 10) -> "ATM+2.50%".
func percentLabel(sign byte, quarters int) string {
	return fmt.Sprintf("ATM%c%d.%02d%%", sign, quarters/4, (quarters%4)*25)
}

// LadderForMethod returns the selectable ladder for a method. The premium
// methods return an empty ladder: their strike is resolved from live
// premiums outside this package. Unknown methods also return an empty
// ladder.
func LadderForMethod(m SelectionMethod) []LadderEntry {
	switch m {
	case SelectionATMPoints:
		return LadderForPoints()
	case SelectionATMPercent:
		return LadderForPercent()
	default:
		return nil
	}
}

// LadderContains reports whether label appears in the ladder for m.
func LadderContains(m SelectionMethod, label string) bool {
	for _, e := range LadderForMethod(m) {
		if e.Label == label {
			return true
		}
	}
	return false
}

// DefaultSelectorForMethod is the selector a leg falls back to when its
// selection method changes: the ATM anchor for ladder methods, empty for
// the premium methods (which use a criterion instead).
func DefaultSelectorForMethod(m SelectionMethod) string {
	if m.UsesLadder() {
		return ATMLabel
	}
	return ""
}

package mock

import (
	"testing"

	"github.com/quantrail/stratforge/internal/models"
)

func TestGenerateSampleDrafts_Count(t *testing.T) {
	drafts, err := GenerateSampleDrafts(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 0 {
		t.Fatalf("expected no drafts, got %d", len(drafts))
	}

	drafts, err = GenerateSampleDrafts(6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drafts) != 6 {
		t.Fatalf("expected 6 drafts, got %d", len(drafts))
	}

	// Wrapping around the recipe list suffixes the names.
	if drafts[4].Strategy.Name != "Nifty Weekly Straddle 2" {
		t.Errorf("fifth draft name = %q", drafts[4].Strategy.Name)
	}

	seen := make(map[string]bool)
	for _, d := range drafts {
		if seen[d.ID] {
			t.Errorf("duplicate draft id %s", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestGenerateSampleDrafts_AllConsistent(t *testing.T) {
	drafts, err := GenerateSampleDrafts(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, d := range drafts {
		if err := d.ValidateStateConsistency(); err != nil {
			t.Errorf("draft %q inconsistent: %v", d.Strategy.Name, err)
		}
		for _, leg := range d.Strategy.Legs {
			if violations := leg.Risk.Violations(); len(violations) > 0 {
				t.Errorf("draft %q leg risk violations: %v", d.Strategy.Name, violations)
			}
		}
	}
}

func TestGenerateSampleDrafts_Shapes(t *testing.T) {
	drafts, err := GenerateSampleDrafts(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	straddle := drafts[0]
	if straddle.State != models.WizardStatePreview {
		t.Errorf("straddle state = %s, want preview", straddle.State)
	}
	if len(straddle.Strategy.Legs) != 2 {
		t.Fatalf("straddle legs = %d, want 2", len(straddle.Strategy.Legs))
	}
	for _, leg := range straddle.Strategy.Legs {
		if leg.StrikeSelector != "ATM" {
			t.Errorf("straddle leg selector = %q, want ATM", leg.StrikeSelector)
		}
		if !leg.Risk.StopLoss.Enabled || !leg.Risk.TargetProfit.Enabled {
			t.Errorf("straddle leg should have stop loss and target profit enabled")
		}
	}

	strangle := drafts[1]
	if strangle.State != models.WizardStateLegs {
		t.Errorf("strangle state = %s, want legs", strangle.State)
	}
	if !strangle.Strategy.Legs[0].Risk.TrailingStopLoss.Enabled {
		t.Errorf("strangle call leg should trail its stop loss")
	}
	if !strangle.Strategy.Legs[1].Risk.ReEntry.Enabled {
		t.Errorf("strangle put leg should re-enter after stop-outs")
	}

	condor := drafts[2]
	if len(condor.Strategy.Legs) != 4 {
		t.Errorf("condor legs = %d, want 4", len(condor.Strategy.Legs))
	}
	if condor.Strategy.Index != models.IndexFinNifty {
		t.Errorf("condor index = %s, want FINNIFTY", condor.Strategy.Index)
	}

	hunter := drafts[3]
	if hunter.State != models.WizardStateBasic {
		t.Errorf("premium hunter state = %s, want basic", hunter.State)
	}
	lead := hunter.Strategy.Legs[0]
	if lead.SelectionMethod != models.SelectionClosestPremium {
		t.Errorf("premium hunter method = %s", lead.SelectionMethod)
	}
	if lead.PremiumCriterion != 120.5 {
		t.Errorf("premium hunter criterion = %v, want 120.5", lead.PremiumCriterion)
	}
	if lead.StrikeSelector != "" {
		t.Errorf("premium methods should carry no selector, got %q", lead.StrikeSelector)
	}
	if !lead.Risk.ReExecute.Enabled {
		t.Errorf("premium hunter lead leg should re-execute after target profit")
	}
}

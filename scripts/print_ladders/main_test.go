package main

import (
	"strings"
	"testing"

	"github.com/quantrail/stratforge/internal/models"
)

func TestRenderLadder_Points(t *testing.T) {
	out := renderLadder(models.SelectionATMPoints, false)

	if !strings.Contains(out, "ATM_POINTS (41 entries)") {
		t.Errorf("header missing entry count:\n%s", out)
	}
	for _, label := range []string{"ITM20", "ITM1", "OTM1", "OTM20"} {
		if !strings.Contains(out, label) {
			t.Errorf("ladder output missing %s", label)
		}
	}
	if !strings.Contains(out, "->  20  ATM") {
		t.Errorf("ATM anchor not marked at position 20:\n%s", out)
	}
}

func TestRenderLadder_PercentWithValues(t *testing.T) {
	out := renderLadder(models.SelectionATMPercent, true)

	if !strings.Contains(out, "ATM_PERCENT (81 entries)") {
		t.Errorf("header missing entry count:\n%s", out)
	}
	if !strings.Contains(out, "ATM+10.00%") || !strings.Contains(out, "ATM-10.00%") {
		t.Errorf("percent ladder missing outer labels:\n%s", out)
	}
	// The ATM anchor has offset zero; its label carries no digits, so the
	// printed zero can only come from the values column.
	if !strings.Contains(out, "+0.00") {
		t.Errorf("values flag did not print signed offsets:\n%s", out)
	}
}

func TestRenderLadder_PremiumMethods(t *testing.T) {
	for _, m := range []models.SelectionMethod{
		models.SelectionClosestPremium,
		models.SelectionClosestStraddlePremium,
	} {
		out := renderLadder(m, false)
		if !strings.Contains(out, "(0 entries)") {
			t.Errorf("%s should render an empty ladder:\n%s", m, out)
		}
		if !strings.Contains(out, "no ladder") {
			t.Errorf("%s should explain the missing ladder:\n%s", m, out)
		}
	}
}

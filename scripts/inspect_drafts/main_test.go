package main

import (
	"strings"
	"testing"

	"github.com/quantrail/stratforge/internal/models"
)

func TestAuditDraft_CleanPreviewDraft(t *testing.T) {
	d := models.NewDraft("Clean", models.IndexNifty, models.ExpiryWeekly)
	if _, err := d.AddLeg(); err != nil {
		t.Fatalf("AddLeg() error = %v", err)
	}
	if err := d.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if err := d.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	r := auditDraft(d)

	if r.State != string(models.WizardStatePreview) {
		t.Errorf("State = %q, want preview", r.State)
	}
	if r.Legs != 1 {
		t.Errorf("Legs = %d, want 1", r.Legs)
	}
	if len(r.Blockers) != 0 {
		t.Errorf("Blockers = %v, want none", r.Blockers)
	}
	if len(r.Issues) != 0 {
		t.Errorf("Issues = %v, want none", r.Issues)
	}
}

func TestAuditDraft_FlagsBlockersAndViolations(t *testing.T) {
	d := models.NewDraft("", models.IndexNifty, models.ExpiryWeekly)

	r := auditDraft(d)
	if len(r.Blockers) == 0 {
		t.Error("unnamed legless draft should report blockers")
	}

	// A leg whose risk block skipped the setters.
	if _, err := d.AddLeg(); err != nil {
		t.Fatalf("AddLeg() error = %v", err)
	}
	d.Strategy.Legs[0].Risk.TrailingStopLoss.Enabled = true

	r = auditDraft(d)
	if len(r.Issues) == 0 {
		t.Fatal("risk dependency breach should be flagged as an issue")
	}
	if !strings.HasPrefix(r.Issues[0], "leg 1:") {
		t.Errorf("issue %q should name the leg", r.Issues[0])
	}
}

func TestBuildReports_OrdersByCreation(t *testing.T) {
	first := models.NewDraft("First", models.IndexNifty, models.ExpiryWeekly)
	second := models.NewDraft("Second", models.IndexBankNifty, models.ExpiryMonthly)
	second.CreatedAt = first.CreatedAt.Add(1)

	reports := buildReports(map[string]models.Draft{
		second.ID: *second,
		first.ID:  *first,
	})

	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].Name != "First" || reports[1].Name != "Second" {
		t.Errorf("reports out of order: %q, %q", reports[0].Name, reports[1].Name)
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "uuid gets truncated", input: "3f2a1b9c-dead-beef", expected: "3f2a1b9c"},
		{name: "short id unchanged", input: "abc", expected: "abc"},
		{name: "exactly eight", input: "12345678", expected: "12345678"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shortID(tt.input); got != tt.expected {
				t.Errorf("shortID(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{name: "fits", input: "Iron Condor", max: 24, expected: "Iron Condor"},
		{name: "too long", input: "An Extremely Verbose Strategy Name", max: 10, expected: "An Extr..."},
		{name: "exact", input: "1234567890", max: 10, expected: "1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.max); got != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, expected %q", tt.input, tt.max, got, tt.expected)
			}
		})
	}
}

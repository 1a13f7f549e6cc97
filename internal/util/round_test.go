package util

import (
	"math"
	"testing"
)

func TestRoundToStep(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		step     float64
		expected float64
	}{
		{
			name:     "rounds down to nearest step",
			x:        24871,
			step:     50,
			expected: 24850,
		},
		{
			name:     "rounds up to nearest step",
			x:        24876,
			step:     50,
			expected: 24900,
		},
		{
			name:     "exact multiple unchanged",
			x:        55400,
			step:     100,
			expected: 55400,
		},
		{
			name:     "tie rounds away from zero",
			x:        24875,
			step:     50,
			expected: 24900,
		},
		{
			name:     "zero step returns input",
			x:        123.45,
			step:     0,
			expected: 123.45,
		},
		{
			name:     "negative step returns input",
			x:        123.45,
			step:     -50,
			expected: 123.45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToStep(tt.x, tt.step)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("RoundToStep(%v, %v) = %v, expected %v", tt.x, tt.step, result, tt.expected)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		expected float64
	}{
		{name: "rounds down", x: 2.344, expected: 2.34},
		{name: "rounds up", x: 2.346, expected: 2.35},
		{name: "tie rounds away from zero", x: 2.345, expected: 2.35},
		{name: "negative tie rounds away from zero", x: -2.345, expected: -2.35},
		{name: "already two decimals", x: 10.25, expected: 10.25},
		{name: "whole number", x: 7, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round2(tt.x)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("Round2(%v) = %v, expected %v", tt.x, result, tt.expected)
			}
		})
	}

	if r := Round2(math.NaN()); !math.IsNaN(r) {
		t.Errorf("Round2(NaN) = %v, expected NaN", r)
	}
	if r := Round2(math.Inf(1)); !math.IsInf(r, 1) {
		t.Errorf("Round2(+Inf) = %v, expected +Inf", r)
	}
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi int
		expected  int
	}{
		{name: "below range", v: 0, lo: 1, hi: 5, expected: 1},
		{name: "above range", v: 9, lo: 1, hi: 5, expected: 5},
		{name: "inside range", v: 3, lo: 1, hi: 5, expected: 3},
		{name: "at lower bound", v: 1, lo: 1, hi: 5, expected: 1},
		{name: "at upper bound", v: 5, lo: 1, hi: 5, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampInt(tt.v, tt.lo, tt.hi); got != tt.expected {
				t.Errorf("ClampInt(%d, %d, %d) = %d, expected %d", tt.v, tt.lo, tt.hi, got, tt.expected)
			}
		})
	}
}

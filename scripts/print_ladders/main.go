// print_ladders - prints every strike-selection ladder in display order.
// Useful for eyeballing the exact labels the API serves before wiring a
// front end against them.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/quantrail/stratforge/internal/models"
)

var allMethods = []models.SelectionMethod{
	models.SelectionATMPoints,
	models.SelectionATMPercent,
	models.SelectionClosestPremium,
	models.SelectionClosestStraddlePremium,
}

func main() {
	var (
		methodFlag = flag.String("method", "", "Print a single method's ladder (default: all)")
		withValues = flag.Bool("values", false, "Include the signed ATM offset next to each label")
	)
	flag.Parse()

	methods := allMethods
	if *methodFlag != "" {
		m := models.SelectionMethod(*methodFlag)
		if !m.Valid() {
			log.Fatalf("Unknown selection method %q", *methodFlag)
		}
		methods = []models.SelectionMethod{m}
	}

	for _, m := range methods {
		fmt.Print(renderLadder(m, *withValues))
		fmt.Println()
	}
}

// renderLadder formats one method's ladder with display positions. The ATM
// anchor is marked so off-by-one edits to the ladder builders stand out.
func renderLadder(m models.SelectionMethod, withValues bool) string {
	var b strings.Builder
	entries := models.LadderForMethod(m)

	fmt.Fprintf(&b, "=== %s (%d entries) ===\n", m, len(entries))
	if len(entries) == 0 {
		b.WriteString("  strike resolves against live premiums, no ladder\n")
		return b.String()
	}

	for i, e := range entries {
		marker := "  "
		if e.Label == models.ATMLabel {
			marker = "->"
		}
		if withValues {
			fmt.Fprintf(&b, "%s %3d  %-12s %+.2f\n", marker, i, e.Label, e.Value)
		} else {
			fmt.Fprintf(&b, "%s %3d  %s\n", marker, i, e.Label)
		}
	}
	return b.String()
}

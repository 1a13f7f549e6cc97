// Package mock fabricates sample strategy drafts for demo mode. Every
// draft is assembled through the real model operations, so the samples
// always satisfy the same invariants as drafts built through the API.
package mock

import (
	"fmt"

	"github.com/quantrail/stratforge/internal/models"
)

// sampleLeg is the recipe for one leg of a sample strategy. A zero method
// keeps the leg's default ATM_POINTS selection.
type sampleLeg struct {
	optionType models.OptionType
	action     models.Action
	method     models.SelectionMethod
	selector   string
	premium    float64
	lots       int
	risk       models.LegRiskPatch
}

// sampleStrategy is one canned strategy: its identity plus the wizard step
// the demo leaves it on (0 = basic, 1 = legs, 2 = preview).
type sampleStrategy struct {
	name     string
	index    models.IndexSymbol
	expiry   models.ExpiryType
	advances int
	legs     []sampleLeg
}

func ptr[T any](v T) *T { return &v }

func sellPut(selector string, risk models.LegRiskPatch) sampleLeg {
	return sampleLeg{
		optionType: models.OptionTypePut,
		action:     models.ActionSell,
		selector:   selector,
		lots:       1,
		risk:       risk,
	}
}

func sellCall(selector string, risk models.LegRiskPatch) sampleLeg {
	return sampleLeg{
		optionType: models.OptionTypeCall,
		action:     models.ActionSell,
		selector:   selector,
		lots:       1,
		risk:       risk,
	}
}

func buyPut(selector string) sampleLeg {
	return sampleLeg{
		optionType: models.OptionTypePut,
		action:     models.ActionBuy,
		selector:   selector,
		lots:       1,
	}
}

func buyCall(selector string) sampleLeg {
	return sampleLeg{
		optionType: models.OptionTypeCall,
		action:     models.ActionBuy,
		selector:   selector,
		lots:       1,
	}
}

// percentStop is the stop-loss-plus-target block the short samples share.
func percentStop(slValue, tpValue float64) models.LegRiskPatch {
	return models.LegRiskPatch{
		StopLoss: &models.StopLossConfig{
			Kind:    models.RiskKindPercentage,
			Value:   slValue,
			Enabled: true,
		},
		TargetProfit: &models.TargetProfitConfig{
			Kind:    models.RiskKindPercentage,
			Value:   tpValue,
			Enabled: true,
		},
	}
}

func sampleStrategies() []sampleStrategy {
	return []sampleStrategy{
		{
			name:     "Nifty Weekly Straddle",
			index:    models.IndexNifty,
			expiry:   models.ExpiryWeekly,
			advances: 2,
			legs: []sampleLeg{
				sellCall("ATM", percentStop(30, 60)),
				sellPut("ATM", percentStop(30, 60)),
			},
		},
		{
			name:     "Bank Nifty Strangle",
			index:    models.IndexBankNifty,
			expiry:   models.ExpiryWeekly,
			advances: 1,
			legs: []sampleLeg{
				sellCall("OTM4", models.LegRiskPatch{
					StopLoss: &models.StopLossConfig{
						Kind:    models.RiskKindPoints,
						Value:   120,
						Enabled: true,
					},
					TrailingStopLoss: &models.TrailingStopLossConfig{
						Kind:                models.RiskKindPoints,
						InstrumentMoveValue: 50,
						StopLossMoveValue:   25,
						Enabled:             true,
					},
				}),
				sellPut("OTM4", models.LegRiskPatch{
					StopLoss: &models.StopLossConfig{
						Kind:    models.RiskKindPoints,
						Value:   120,
						Enabled: true,
					},
					ReEntry: &models.ReEntryConfig{
						Kind:    models.ReEntrySLReEntry,
						Count:   2,
						Enabled: true,
					},
				}),
			},
		},
		{
			name:     "Fin Nifty Iron Condor",
			index:    models.IndexFinNifty,
			expiry:   models.ExpiryMonthly,
			advances: 1,
			legs: []sampleLeg{
				sellCall("OTM2", percentStop(40, 80)),
				buyCall("OTM5"),
				sellPut("OTM2", percentStop(40, 80)),
				buyPut("OTM5"),
			},
		},
		{
			name:     "Nifty Premium Hunter",
			index:    models.IndexNifty,
			expiry:   models.ExpiryWeekly,
			advances: 0,
			legs: []sampleLeg{
				{
					optionType: models.OptionTypeCall,
					action:     models.ActionSell,
					method:     models.SelectionClosestPremium,
					premium:    120.5,
					lots:       2,
					risk: models.LegRiskPatch{
						TargetProfit: &models.TargetProfitConfig{
							Kind:    models.RiskKindPercentage,
							Value:   50,
							Enabled: true,
						},
						ReExecute: &models.ReExecuteConfig{
							Kind:    models.ReExecuteTPReExec,
							Count:   1,
							Enabled: true,
						},
					},
				},
				{
					optionType: models.OptionTypePut,
					action:     models.ActionSell,
					method:     models.SelectionClosestPremium,
					premium:    120.5,
					lots:       2,
				},
			},
		},
	}
}

// GenerateSampleDrafts builds n demo drafts, cycling through the canned
// strategies. Repeats get a numeric suffix so names stay distinguishable.
func GenerateSampleDrafts(n int) ([]models.Draft, error) {
	recipes := sampleStrategies()

	drafts := make([]models.Draft, 0, n)
	for i := 0; i < n; i++ {
		recipe := recipes[i%len(recipes)]
		name := recipe.name
		if i >= len(recipes) {
			name = fmt.Sprintf("%s %d", recipe.name, i/len(recipes)+1)
		}

		draft, err := buildDraft(name, recipe)
		if err != nil {
			return nil, fmt.Errorf("building sample %q: %w", name, err)
		}
		drafts = append(drafts, *draft)
	}

	return drafts, nil
}

func buildDraft(name string, recipe sampleStrategy) (*models.Draft, error) {
	draft := models.NewDraft(name, recipe.index, recipe.expiry)

	for _, spec := range recipe.legs {
		leg, err := draft.AddLeg()
		if err != nil {
			return nil, fmt.Errorf("adding leg: %w", err)
		}

		patch := models.LegPatch{
			OptionType: ptr(spec.optionType),
			Action:     ptr(spec.action),
			Lots:       ptr(spec.lots),
		}
		if spec.method != "" {
			patch.SelectionMethod = ptr(spec.method)
		}
		if spec.selector != "" {
			patch.StrikeSelector = ptr(spec.selector)
		}
		if spec.premium > 0 {
			patch.PremiumCriterion = ptr(spec.premium)
		}

		if err := draft.UpdateLeg(leg.ID, patch); err != nil {
			return nil, fmt.Errorf("configuring leg: %w", err)
		}
		if err := draft.ApplyLegRisk(leg.ID, spec.risk); err != nil {
			return nil, fmt.Errorf("configuring leg risk: %w", err)
		}
	}

	for i := 0; i < recipe.advances; i++ {
		if err := draft.Advance(); err != nil {
			return nil, fmt.Errorf("advancing wizard: %w", err)
		}
	}

	return draft, nil
}

package models

// StrategySnapshot is the payload handed to the order service at
// submission. Legs are flattened to primitive fields with no internal
// ids; times travel as HH:MM strings. Strike selectors stay symbolic,
// resolution to numeric strikes happens on the order-service side
// against live market data.
type StrategySnapshot struct {
	Name   string         `json:"name"`
	Index  IndexSymbol    `json:"index"`
	Config SnapshotConfig `json:"config"`
	Legs   []LegSnapshot  `json:"legs"`
}

// SnapshotConfig carries the strategy-global settings of a snapshot.
type SnapshotConfig struct {
	ExpiryType           ExpiryType         `json:"expiry_type"`
	EntryTime            string             `json:"entry_time"`
	ExitTime             string             `json:"exit_time"`
	RangeBreakoutEnabled bool               `json:"range_breakout_enabled"`
	RangeBreakoutExit    string             `json:"range_breakout_exit,omitempty"`
	MoveSLToCost         bool               `json:"move_sl_to_cost"`
	TargetProfit         StrategyRiskConfig `json:"target_profit"`
	StopLoss             StrategyRiskConfig `json:"stop_loss"`
}

// LegSnapshot is one leg of a snapshot. Quantity is the denormalized
// contract count, lots times the index lot size, carried alongside lots
// so the order service never needs the lot-size table.
type LegSnapshot struct {
	Index                    IndexSymbol     `json:"index"`
	OptionType               OptionType      `json:"option_type"`
	Action                   Action          `json:"action"`
	SelectionMethod          SelectionMethod `json:"selection_method"`
	StrikeSelector           string          `json:"strike_selector,omitempty"`
	PremiumCriterion         float64         `json:"premium_criterion,omitempty"`
	StraddlePremiumCriterion float64         `json:"straddle_premium_criterion,omitempty"`
	Lots                     int             `json:"lots"`
	Quantity                 int             `json:"quantity"`
	ExpiryType               ExpiryType      `json:"expiry_type"`
	Risk                     RiskConfig      `json:"risk"`
}

// Snapshot flattens the strategy into the submission payload, resolving
// each leg's quantity from the index spec table.
func (s Strategy) Snapshot(specs IndexSpecs) *StrategySnapshot {
	snap := &StrategySnapshot{
		Name:  s.Name,
		Index: s.Index,
		Config: SnapshotConfig{
			ExpiryType:           s.ExpiryType,
			EntryTime:            s.EntryTime.String(),
			ExitTime:             s.ExitTime.String(),
			RangeBreakoutEnabled: s.RangeBreakout.Enabled,
			MoveSLToCost:         s.MoveSLToCost,
			TargetProfit:         s.TargetProfit,
			StopLoss:             s.StopLoss,
		},
		Legs: make([]LegSnapshot, 0, len(s.Legs)),
	}
	if s.RangeBreakout.Enabled {
		snap.Config.RangeBreakoutExit = s.RangeBreakout.ExitTime.String()
	}
	for _, leg := range s.Legs {
		quantity := 0
		if spec, ok := specs.Lookup(leg.Index); ok {
			quantity = leg.Lots * spec.LotSize
		}
		snap.Legs = append(snap.Legs, LegSnapshot{
			Index:                    leg.Index,
			OptionType:               leg.OptionType,
			Action:                   leg.Action,
			SelectionMethod:          leg.SelectionMethod,
			StrikeSelector:           leg.StrikeSelector,
			PremiumCriterion:         leg.PremiumCriterion,
			StraddlePremiumCriterion: leg.StraddlePremiumCriterion,
			Lots:                     leg.Lots,
			Quantity:                 quantity,
			ExpiryType:               leg.ExpiryType,
			Risk:                     leg.Risk,
		})
	}
	return snap
}

// SubmissionResult is the outcome of a submission handoff as reported to
// the dashboard: the order-service receipt plus any rejection reasons.
type SubmissionResult struct {
	ReceiptID string   `json:"receipt_id,omitempty"`
	Status    string   `json:"status"`
	Reasons   []string `json:"reasons,omitempty"`
}

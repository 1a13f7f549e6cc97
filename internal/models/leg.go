package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// OptionType is the contract side of a leg.
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// Valid reports whether t is CALL or PUT.
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// Action is the direction of a leg.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Valid reports whether a is BUY or SELL.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// ExpiryType picks the expiry series a leg trades.
type ExpiryType string

const (
	ExpiryWeekly  ExpiryType = "WEEKLY"
	ExpiryMonthly ExpiryType = "MONTHLY"
)

// Valid reports whether e is WEEKLY or MONTHLY.
func (e ExpiryType) Valid() bool {
	return e == ExpiryWeekly || e == ExpiryMonthly
}

// Leg is one option position inside a strategy draft. StrikeSelector holds
// a label from the active ladder, never a raw strike: resolution to an
// actual strike happens downstream at order time against live market data.
// The criterion fields carry a value only while their matching premium
// method is selected.
type Leg struct {
	ID                       string          `json:"id"`
	Index                    IndexSymbol     `json:"index"`
	OptionType               OptionType      `json:"option_type"`
	Action                   Action          `json:"action"`
	SelectionMethod          SelectionMethod `json:"selection_method"`
	StrikeSelector           string          `json:"strike_selector,omitempty"`
	PremiumCriterion         float64         `json:"premium_criterion,omitempty"`
	StraddlePremiumCriterion float64         `json:"straddle_premium_criterion,omitempty"`
	Lots                     int             `json:"lots"`
	ExpiryType               ExpiryType      `json:"expiry_type"`
	Risk                     RiskConfig      `json:"risk"`
}

// NewLeg returns a leg with safe defaults: an ATM buy call, one lot, every
// risk sub-config disabled.
func NewLeg(index IndexSymbol, expiry ExpiryType) Leg {
	return Leg{
		ID:              uuid.NewString(),
		Index:           index,
		OptionType:      OptionTypeCall,
		Action:          ActionBuy,
		SelectionMethod: SelectionATMPoints,
		StrikeSelector:  ATMLabel,
		Lots:            1,
		ExpiryType:      expiry,
		Risk:            DefaultRiskConfig(),
	}
}

// LegPatch is a partial leg update. Nil fields are left untouched.
type LegPatch struct {
	Index                    *IndexSymbol     `json:"index,omitempty"`
	OptionType               *OptionType      `json:"option_type,omitempty"`
	Action                   *Action          `json:"action,omitempty"`
	SelectionMethod          *SelectionMethod `json:"selection_method,omitempty"`
	StrikeSelector           *string          `json:"strike_selector,omitempty"`
	PremiumCriterion         *float64         `json:"premium_criterion,omitempty"`
	StraddlePremiumCriterion *float64         `json:"straddle_premium_criterion,omitempty"`
	Lots                     *int             `json:"lots,omitempty"`
	ExpiryType               *ExpiryType      `json:"expiry_type,omitempty"`
}

// ApplyPatch validates every patched field against the leg the patch would
// produce, then applies the whole patch or none of it. A selection-method
// change resets the selector to ATM for ladder methods, clears it and
// zeroes both criteria for premium methods; an explicit selector or
// criterion in the same patch lands on top of that reset, so a label from
// the previous method's ladder can never survive the switch.
func (l Leg) ApplyPatch(p LegPatch) (Leg, error) {
	method := l.SelectionMethod
	if p.SelectionMethod != nil {
		method = *p.SelectionMethod
		if !method.Valid() {
			return l, NewInvalidField("leg.selectionMethod", method,
				"must be ATM_POINTS, ATM_PERCENT, CLOSEST_PREMIUM or CLOSEST_STRADDLE_PREMIUM")
		}
	}
	if p.Index != nil && !p.Index.Valid() {
		return l, NewInvalidField("leg.index", *p.Index, "must be NIFTY, BANKNIFTY or FINNIFTY")
	}
	if p.OptionType != nil && !p.OptionType.Valid() {
		return l, NewInvalidField("leg.optionType", *p.OptionType, "must be CALL or PUT")
	}
	if p.Action != nil && !p.Action.Valid() {
		return l, NewInvalidField("leg.action", *p.Action, "must be BUY or SELL")
	}
	if p.ExpiryType != nil && !p.ExpiryType.Valid() {
		return l, NewInvalidField("leg.expiryType", *p.ExpiryType, "must be WEEKLY or MONTHLY")
	}
	if p.Lots != nil && *p.Lots < 1 {
		return l, NewInvalidField("leg.lots", *p.Lots, "must be at least 1")
	}
	if p.StrikeSelector != nil {
		sel := *p.StrikeSelector
		if method.UsesLadder() {
			if !LadderContains(method, sel) {
				return l, NewInvalidField("leg.strikeSelector", sel,
					fmt.Sprintf("not a %s ladder label", method))
			}
		} else if sel != "" {
			return l, NewInvalidField("leg.strikeSelector", sel,
				"premium methods do not use a strike selector")
		}
	}
	if p.PremiumCriterion != nil {
		if method != SelectionClosestPremium {
			return l, NewInvalidField("leg.premiumCriterion", *p.PremiumCriterion,
				"only settable when selection method is CLOSEST_PREMIUM")
		}
		if !isFinite(*p.PremiumCriterion) || *p.PremiumCriterion <= 0 {
			return l, NewInvalidField("leg.premiumCriterion", *p.PremiumCriterion,
				"must be a finite number greater than zero")
		}
	}
	if p.StraddlePremiumCriterion != nil {
		if method != SelectionClosestStraddlePremium {
			return l, NewInvalidField("leg.straddlePremiumCriterion", *p.StraddlePremiumCriterion,
				"only settable when selection method is CLOSEST_STRADDLE_PREMIUM")
		}
		if !isFinite(*p.StraddlePremiumCriterion) || *p.StraddlePremiumCriterion <= 0 {
			return l, NewInvalidField("leg.straddlePremiumCriterion", *p.StraddlePremiumCriterion,
				"must be a finite number greater than zero")
		}
	}

	out := l
	if p.Index != nil {
		out.Index = *p.Index
	}
	if p.OptionType != nil {
		out.OptionType = *p.OptionType
	}
	if p.Action != nil {
		out.Action = *p.Action
	}
	if p.SelectionMethod != nil && *p.SelectionMethod != l.SelectionMethod {
		out.SelectionMethod = method
		out.StrikeSelector = DefaultSelectorForMethod(method)
		out.PremiumCriterion = 0
		out.StraddlePremiumCriterion = 0
	}
	if p.StrikeSelector != nil {
		out.StrikeSelector = *p.StrikeSelector
	}
	if p.PremiumCriterion != nil {
		out.PremiumCriterion = *p.PremiumCriterion
	}
	if p.StraddlePremiumCriterion != nil {
		out.StraddlePremiumCriterion = *p.StraddlePremiumCriterion
	}
	if p.Lots != nil {
		out.Lots = *p.Lots
	}
	if p.ExpiryType != nil {
		out.ExpiryType = *p.ExpiryType
	}
	return out, nil
}

// Clone returns a deep copy under a fresh id, for copy-leg.
func (l Leg) Clone() Leg {
	out := l
	out.ID = uuid.NewString()
	return out
}

// Complete reports whether the leg can pass the legs-step gate. Risk
// settings are not part of completeness; they are re-checked at
// submission.
func (l Leg) Complete() bool {
	return len(l.CompletionIssues()) == 0
}

// CompletionIssues returns one message per field still blocking the leg,
// in a stable order.
func (l Leg) CompletionIssues() []string {
	var out []string
	if !l.Index.Valid() {
		out = append(out, "index must be NIFTY, BANKNIFTY or FINNIFTY")
	}
	if !l.OptionType.Valid() {
		out = append(out, "option type must be CALL or PUT")
	}
	if !l.Action.Valid() {
		out = append(out, "action must be BUY or SELL")
	}
	switch l.SelectionMethod {
	case SelectionATMPoints, SelectionATMPercent:
		if !LadderContains(l.SelectionMethod, l.StrikeSelector) {
			out = append(out, fmt.Sprintf("strike selector %q is not on the %s ladder",
				l.StrikeSelector, l.SelectionMethod))
		}
	case SelectionClosestPremium:
		if !isFinite(l.PremiumCriterion) || l.PremiumCriterion <= 0 {
			out = append(out, "premium criterion must be greater than zero")
		}
	case SelectionClosestStraddlePremium:
		if !isFinite(l.StraddlePremiumCriterion) || l.StraddlePremiumCriterion <= 0 {
			out = append(out, "straddle premium criterion must be greater than zero")
		}
	default:
		out = append(out, fmt.Sprintf("unknown selection method %q", l.SelectionMethod))
	}
	if l.Lots < 1 {
		out = append(out, "lots must be at least 1")
	}
	if !l.ExpiryType.Valid() {
		out = append(out, "expiry type must be WEEKLY or MONTHLY")
	}
	return out
}

// Describe returns a short human label for logs and audit output, e.g.
// "SELL NIFTY CALL ATM x2".
func (l Leg) Describe() string {
	target := l.StrikeSelector
	switch l.SelectionMethod {
	case SelectionClosestPremium:
		target = fmt.Sprintf("premium~%.2f", l.PremiumCriterion)
	case SelectionClosestStraddlePremium:
		target = fmt.Sprintf("straddle~%.2f", l.StraddlePremiumCriterion)
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s %s x%d", l.Action, l.Index, l.OptionType, target, l.Lots))
}

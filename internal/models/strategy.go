package models

import (
	"fmt"
	"strings"

	"github.com/quantrail/stratforge/internal/util"
)

// TimeOfDay is a wall-clock hour and minute in exchange time.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Valid reports whether t is a real wall-clock time.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// Minutes returns t as minutes past midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// String renders t as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// RangeBreakoutConfig delays entries until the opening range breaks, with
// its own exit time for the breakout window.
type RangeBreakoutConfig struct {
	Enabled  bool      `json:"enabled"`
	ExitTime TimeOfDay `json:"exit_time"`
}

// StrategyRiskBasis scales a strategy-level risk value. Distinct from the
// per-leg RiskKind scale.
type StrategyRiskBasis string

const (
	BasisTotalMTM               StrategyRiskBasis = "TOTAL_MTM"
	BasisCombinedPremiumPercent StrategyRiskBasis = "COMBINED_PREMIUM_PERCENT"
)

// Valid reports whether b is one of the defined bases.
func (b StrategyRiskBasis) Valid() bool {
	return b == BasisTotalMTM || b == BasisCombinedPremiumPercent
}

// StrategyRiskConfig is a strategy-wide target profit or stop loss across
// all legs combined.
type StrategyRiskConfig struct {
	Enabled bool              `json:"enabled"`
	Basis   StrategyRiskBasis `json:"basis"`
	Value   float64           `json:"value"`
}

// Strategy is the draft being assembled by the wizard: an ordered leg
// list plus the strategy-global configuration. Index and ExpiryType are
// the defaults new legs inherit; individual legs may override both.
// Invalid intermediate states are allowed while drafting; the gates in
// SubmissionBlockers and the wizard guards decide when the draft may move
// forward.
type Strategy struct {
	Name          string              `json:"name"`
	Index         IndexSymbol         `json:"index"`
	ExpiryType    ExpiryType          `json:"expiry_type"`
	Legs          []Leg               `json:"legs"`
	EntryTime     TimeOfDay           `json:"entry_time"`
	ExitTime      TimeOfDay           `json:"exit_time"`
	RangeBreakout RangeBreakoutConfig `json:"range_breakout"`
	MoveSLToCost  bool                `json:"move_sl_to_cost"`
	TargetProfit  StrategyRiskConfig  `json:"target_profit"`
	StopLoss      StrategyRiskConfig  `json:"stop_loss"`
}

// NewStrategy returns an empty draft strategy with the standard intraday
// window: entry 09:20, exit 15:10, range-breakout window ending 10:00.
func NewStrategy(name string, index IndexSymbol, expiry ExpiryType) Strategy {
	return Strategy{
		Name:       strings.TrimSpace(name),
		Index:      index,
		ExpiryType: expiry,
		EntryTime:  TimeOfDay{Hour: 9, Minute: 20},
		ExitTime:   TimeOfDay{Hour: 15, Minute: 10},
		RangeBreakout: RangeBreakoutConfig{
			ExitTime: TimeOfDay{Hour: 10, Minute: 0},
		},
		TargetProfit: StrategyRiskConfig{Basis: BasisTotalMTM},
		StopLoss:     StrategyRiskConfig{Basis: BasisTotalMTM},
	}
}

// StrategyPatch is a partial update of the strategy-global fields. Nil
// fields are left untouched. Legs are edited through the leg operations,
// never through a patch.
type StrategyPatch struct {
	Name          *string              `json:"name,omitempty"`
	Index         *IndexSymbol         `json:"index,omitempty"`
	ExpiryType    *ExpiryType          `json:"expiry_type,omitempty"`
	EntryTime     *TimeOfDay           `json:"entry_time,omitempty"`
	ExitTime      *TimeOfDay           `json:"exit_time,omitempty"`
	RangeBreakout *RangeBreakoutConfig `json:"range_breakout,omitempty"`
	MoveSLToCost  *bool                `json:"move_sl_to_cost,omitempty"`
	TargetProfit  *StrategyRiskConfig  `json:"target_profit,omitempty"`
	StopLoss      *StrategyRiskConfig  `json:"stop_loss,omitempty"`
}

// ApplyPatch validates every patched field, then applies the whole patch
// or none of it. Entry/exit ordering is deliberately not checked here so
// the two times can be edited one at a time; ordering is a submission
// blocker instead. COMBINED_PREMIUM_PERCENT values are rounded to two
// decimals on write.
func (s Strategy) ApplyPatch(p StrategyPatch) (Strategy, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return s, NewInvalidField("strategy.name", *p.Name, "must not be empty")
	}
	if p.Index != nil && !p.Index.Valid() {
		return s, NewInvalidField("strategy.index", *p.Index, "must be NIFTY, BANKNIFTY or FINNIFTY")
	}
	if p.ExpiryType != nil && !p.ExpiryType.Valid() {
		return s, NewInvalidField("strategy.expiryType", *p.ExpiryType, "must be WEEKLY or MONTHLY")
	}
	if p.EntryTime != nil && !p.EntryTime.Valid() {
		return s, NewInvalidField("strategy.entryTime", p.EntryTime.String(), "must be a valid time of day")
	}
	if p.ExitTime != nil && !p.ExitTime.Valid() {
		return s, NewInvalidField("strategy.exitTime", p.ExitTime.String(), "must be a valid time of day")
	}
	if p.RangeBreakout != nil && !p.RangeBreakout.ExitTime.Valid() {
		return s, NewInvalidField("strategy.rangeBreakout.exitTime", p.RangeBreakout.ExitTime.String(),
			"must be a valid time of day")
	}
	if p.TargetProfit != nil {
		if err := validStrategyRisk("strategy.targetProfit", *p.TargetProfit); err != nil {
			return s, err
		}
	}
	if p.StopLoss != nil {
		if err := validStrategyRisk("strategy.stopLoss", *p.StopLoss); err != nil {
			return s, err
		}
	}

	out := s
	if p.Name != nil {
		out.Name = strings.TrimSpace(*p.Name)
	}
	if p.Index != nil {
		out.Index = *p.Index
	}
	if p.ExpiryType != nil {
		out.ExpiryType = *p.ExpiryType
	}
	if p.EntryTime != nil {
		out.EntryTime = *p.EntryTime
	}
	if p.ExitTime != nil {
		out.ExitTime = *p.ExitTime
	}
	if p.RangeBreakout != nil {
		out.RangeBreakout = *p.RangeBreakout
	}
	if p.MoveSLToCost != nil {
		out.MoveSLToCost = *p.MoveSLToCost
	}
	if p.TargetProfit != nil {
		out.TargetProfit = roundStrategyRisk(*p.TargetProfit)
	}
	if p.StopLoss != nil {
		out.StopLoss = roundStrategyRisk(*p.StopLoss)
	}
	return out, nil
}

func validStrategyRisk(field string, c StrategyRiskConfig) error {
	if c.Basis != "" && !c.Basis.Valid() {
		return NewInvalidField(field+".basis", c.Basis, "must be TOTAL_MTM or COMBINED_PREMIUM_PERCENT")
	}
	if !isFinite(c.Value) || c.Value < 0 {
		return NewInvalidField(field+".value", c.Value, "must be a non-negative finite number")
	}
	return nil
}

func roundStrategyRisk(c StrategyRiskConfig) StrategyRiskConfig {
	if c.Basis == "" {
		c.Basis = BasisTotalMTM
	}
	if c.Basis == BasisCombinedPremiumPercent {
		c.Value = util.Round2(c.Value)
	}
	return c
}

// AddLeg appends a default leg inheriting the strategy's index and expiry
// and returns it alongside the updated strategy.
func (s Strategy) AddLeg() (Strategy, Leg) {
	leg := NewLeg(s.Index, s.ExpiryType)
	out := s.Copy()
	out.Legs = append(out.Legs, leg)
	return out, leg
}

// RemoveLeg drops the leg with the given id. Unknown ids are a no-op
// returning false. Removing the last leg is permitted: an empty leg list
// is a legal transient state, gated only when the wizard advances or the
// strategy submits.
func (s Strategy) RemoveLeg(id string) (Strategy, bool) {
	i, ok := s.legIndex(id)
	if !ok {
		return s, false
	}
	out := s.Copy()
	out.Legs = append(out.Legs[:i], out.Legs[i+1:]...)
	return out, true
}

// CopyLeg deep-clones the leg with the given id under a fresh id and
// inserts the clone directly after its source. Unknown ids return false.
func (s Strategy) CopyLeg(id string) (Strategy, Leg, bool) {
	i, ok := s.legIndex(id)
	if !ok {
		return s, Leg{}, false
	}
	out := s.Copy()
	clone := out.Legs[i].Clone()
	out.Legs = append(out.Legs[:i+1], append([]Leg{clone}, out.Legs[i+1:]...)...)
	return out, clone, true
}

// UpdateLeg applies a leg patch to the leg with the given id.
func (s Strategy) UpdateLeg(id string, p LegPatch) (Strategy, error) {
	i, ok := s.legIndex(id)
	if !ok {
		return s, ErrLegNotFound
	}
	next, err := s.Legs[i].ApplyPatch(p)
	if err != nil {
		return s, err
	}
	out := s.Copy()
	out.Legs[i] = next
	return out, nil
}

// LegRiskPatch updates one or more risk sections of a single leg. Nil
// sections are left untouched.
type LegRiskPatch struct {
	StopLoss         *StopLossConfig         `json:"stop_loss,omitempty"`
	TargetProfit     *TargetProfitConfig     `json:"target_profit,omitempty"`
	TrailingStopLoss *TrailingStopLossConfig `json:"trailing_stop_loss,omitempty"`
	WaitAndTrade     *WaitAndTradeConfig     `json:"wait_and_trade,omitempty"`
	ReEntry          *ReEntryConfig          `json:"re_entry,omitempty"`
	ReExecute        *ReExecuteConfig        `json:"re_execute,omitempty"`
}

// ApplyLegRisk routes each patched section through its risk setter, in a
// fixed order so that a patch enabling the stop loss and the trailing
// stop loss together succeeds. The first setter error aborts the whole
// patch and returns the strategy unchanged.
func (s Strategy) ApplyLegRisk(id string, p LegRiskPatch) (Strategy, error) {
	i, ok := s.legIndex(id)
	if !ok {
		return s, ErrLegNotFound
	}
	risk := s.Legs[i].Risk
	var err error
	if p.StopLoss != nil {
		if risk, err = SetStopLoss(risk, *p.StopLoss); err != nil {
			return s, err
		}
	}
	if p.TargetProfit != nil {
		if risk, err = SetTargetProfit(risk, *p.TargetProfit); err != nil {
			return s, err
		}
	}
	if p.TrailingStopLoss != nil {
		if risk, err = SetTrailingStopLoss(risk, *p.TrailingStopLoss); err != nil {
			return s, err
		}
	}
	if p.WaitAndTrade != nil {
		if risk, err = SetWaitAndTrade(risk, *p.WaitAndTrade); err != nil {
			return s, err
		}
	}
	if p.ReEntry != nil {
		if risk, err = SetReEntry(risk, *p.ReEntry); err != nil {
			return s, err
		}
	}
	if p.ReExecute != nil {
		if risk, err = SetReExecute(risk, *p.ReExecute); err != nil {
			return s, err
		}
	}
	out := s.Copy()
	out.Legs[i].Risk = risk
	return out, nil
}

// LegByID returns the leg with the given id.
func (s Strategy) LegByID(id string) (Leg, bool) {
	i, ok := s.legIndex(id)
	if !ok {
		return Leg{}, false
	}
	return s.Legs[i], true
}

func (s Strategy) legIndex(id string) (int, bool) {
	for i := range s.Legs {
		if s.Legs[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// IsSubmittable reports whether the strategy passes every submission
// gate. Equivalent to len(SubmissionBlockers()) == 0.
func (s Strategy) IsSubmittable() bool {
	return len(s.SubmissionBlockers()) == 0
}

// SubmissionBlockers re-checks the whole draft from scratch and returns
// every blocking problem as UI-ready text, in a stable order: name, leg
// count, per-leg completeness, per-leg risk, time window, strategy risk.
// Legs may have been built before a later rule change, so stored risk
// state is re-validated rather than trusted.
func (s Strategy) SubmissionBlockers() []string {
	var out []string
	if strings.TrimSpace(s.Name) == "" {
		out = append(out, "Strategy name is required")
	}
	if len(s.Legs) == 0 {
		out = append(out, "At least one leg is required")
	}
	for i, leg := range s.Legs {
		for _, issue := range leg.CompletionIssues() {
			out = append(out, fmt.Sprintf("Leg %d: %s", i+1, issue))
		}
	}
	for i, leg := range s.Legs {
		for _, v := range leg.Risk.Violations() {
			out = append(out, fmt.Sprintf("Leg %d: %s", i+1, v))
		}
	}
	out = append(out, s.timeWindowBlockers()...)
	out = append(out, s.strategyRiskBlockers()...)
	return out
}

func (s Strategy) timeWindowBlockers() []string {
	var out []string
	entryOK, exitOK := s.EntryTime.Valid(), s.ExitTime.Valid()
	if !entryOK {
		out = append(out, "Entry time is not a valid time of day")
	}
	if !exitOK {
		out = append(out, "Exit time is not a valid time of day")
	}
	if entryOK && exitOK && !s.EntryTime.Before(s.ExitTime) {
		out = append(out, "Entry time must be before exit time")
	}
	if s.RangeBreakout.Enabled {
		switch {
		case !s.RangeBreakout.ExitTime.Valid():
			out = append(out, "Range breakout exit time is not a valid time of day")
		case entryOK && !s.EntryTime.Before(s.RangeBreakout.ExitTime):
			out = append(out, "Range breakout exit must be after entry time")
		}
	}
	return out
}

func (s Strategy) strategyRiskBlockers() []string {
	var out []string
	if s.TargetProfit.Enabled {
		if !s.TargetProfit.Basis.Valid() {
			out = append(out, "Strategy target profit basis must be TOTAL_MTM or COMBINED_PREMIUM_PERCENT")
		}
		if !isFinite(s.TargetProfit.Value) || s.TargetProfit.Value <= 0 {
			out = append(out, "Strategy target profit must be greater than zero")
		}
	}
	if s.StopLoss.Enabled {
		if !s.StopLoss.Basis.Valid() {
			out = append(out, "Strategy stop loss basis must be TOTAL_MTM or COMBINED_PREMIUM_PERCENT")
		}
		if !isFinite(s.StopLoss.Value) || s.StopLoss.Value <= 0 {
			out = append(out, "Strategy stop loss must be greater than zero")
		}
	}
	return out
}

// Copy returns a deep copy. Legs hold no reference fields, so copying
// the slice is enough.
func (s Strategy) Copy() Strategy {
	out := s
	if s.Legs != nil {
		out.Legs = make([]Leg, len(s.Legs))
		copy(out.Legs, s.Legs)
	}
	return out
}

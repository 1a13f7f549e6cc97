package models

import (
	"fmt"
	"math"

	"github.com/quantrail/stratforge/internal/util"
)

// RiskKind scales a risk value: absolute index points or a percentage of
// the entry price. RANGE is accepted for stop losses only and exits on a
// breach of the entry range instead of a fixed distance.
type RiskKind string

const (
	RiskKindPoints     RiskKind = "POINTS"
	RiskKindPercentage RiskKind = "PERCENTAGE"
	RiskKindRange      RiskKind = "RANGE"
)

// ReEntryKind selects how a stopped-out leg comes back.
type ReEntryKind string

const (
	// ReEntrySLReEntry re-enters at market after a stop-loss exit.
	ReEntrySLReEntry ReEntryKind = "SL_REENTRY"
	// ReEntrySLReCost re-enters targeting the original entry cost.
	ReEntrySLReCost ReEntryKind = "SL_RECOST"
	// ReEntrySLReExec re-runs strike selection before re-entering.
	ReEntrySLReExec ReEntryKind = "SL_REEXEC"
)

// Valid reports whether k is one of the defined re-entry kinds.
func (k ReEntryKind) Valid() bool {
	switch k {
	case ReEntrySLReEntry, ReEntrySLReCost, ReEntrySLReExec:
		return true
	default:
		return false
	}
}

// ReExecuteKind selects how a leg re-executes after a target-profit exit.
type ReExecuteKind string

// ReExecuteTPReExec is the only defined re-execute behavior: re-run strike
// selection after the target profit is hit.
const ReExecuteTPReExec ReExecuteKind = "TP_REEXEC"

// Repeat-count bounds shared by re-entry and re-execute.
const (
	MinRepeatCount = 1
	MaxRepeatCount = 5
)

// StopLossConfig caps the loss on a single leg.
type StopLossConfig struct {
	Kind    RiskKind `json:"kind"`
	Value   float64  `json:"value"`
	Enabled bool     `json:"enabled"`
}

// TargetProfitConfig books profit on a single leg.
type TargetProfitConfig struct {
	Kind    RiskKind `json:"kind"`
	Value   float64  `json:"value"`
	Enabled bool     `json:"enabled"`
}

// TrailingStopLossConfig moves the stop loss by StopLossMoveValue for
// every InstrumentMoveValue the instrument moves in the leg's favor. It
// rides on top of the plain stop loss and cannot exist without it.
type TrailingStopLossConfig struct {
	Kind                RiskKind `json:"kind"`
	InstrumentMoveValue float64  `json:"instrument_move_value"`
	StopLossMoveValue   float64  `json:"stop_loss_move_value"`
	Enabled             bool     `json:"enabled"`
}

// WaitAndTradeConfig delays entry until the premium moves by Value in the
// configured direction. Independent of the stop-loss settings.
type WaitAndTradeConfig struct {
	Kind    RiskKind `json:"kind"`
	Value   float64  `json:"value"`
	Enabled bool     `json:"enabled"`
}

// ReEntryConfig re-opens a leg after a stop-loss exit, at most Count
// times.
type ReEntryConfig struct {
	Kind    ReEntryKind `json:"kind"`
	Count   int         `json:"count"`
	Enabled bool        `json:"enabled"`
}

// ReExecuteConfig re-opens a leg after a target-profit exit, at most
// Count times. Meaningless without a positive target profit, which is
// exactly what SetReExecute enforces.
type ReExecuteConfig struct {
	Kind    ReExecuteKind `json:"kind"`
	Count   int           `json:"count"`
	Enabled bool          `json:"enabled"`
}

// RiskConfig is the per-leg risk-management block: six sub-configs with
// two dependency rules between them. Trailing stop loss requires the stop
// loss; re-execute requires a positive target profit. The Set* functions
// are the only mutation path that keeps those rules intact.
type RiskConfig struct {
	StopLoss         StopLossConfig         `json:"stop_loss"`
	TargetProfit     TargetProfitConfig     `json:"target_profit"`
	TrailingStopLoss TrailingStopLossConfig `json:"trailing_stop_loss"`
	WaitAndTrade     WaitAndTradeConfig     `json:"wait_and_trade"`
	ReEntry          ReEntryConfig          `json:"re_entry"`
	ReExecute        ReExecuteConfig        `json:"re_execute"`
}

// DefaultRiskConfig returns the risk block a fresh leg starts with: every
// sub-config disabled, point-based kinds, minimum repeat counts.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		StopLoss:         StopLossConfig{Kind: RiskKindPoints},
		TargetProfit:     TargetProfitConfig{Kind: RiskKindPoints},
		TrailingStopLoss: TrailingStopLossConfig{Kind: RiskKindPoints},
		WaitAndTrade:     WaitAndTradeConfig{Kind: RiskKindPoints},
		ReEntry:          ReEntryConfig{Kind: ReEntrySLReEntry, Count: MinRepeatCount},
		ReExecute:        ReExecuteConfig{Kind: ReExecuteTPReExec, Count: MinRepeatCount},
	}
}

// IsValidTargetProfitForReExecute is the single predicate deciding whether
// re-execute may be enabled. SetReExecute enforces it and the API exposes
// it, so the UI affordance and the stored state can never disagree.
func IsValidTargetProfitForReExecute(tp TargetProfitConfig) bool {
	return tp.Enabled && tp.Value > 0
}

// SetStopLoss replaces the stop-loss sub-config. Disabling the stop loss
// also switches the trailing stop loss off: it cannot outlive its parent.
func SetStopLoss(r RiskConfig, next StopLossConfig) (RiskConfig, error) {
	if next.Kind == "" {
		next.Kind = r.StopLoss.Kind
	}
	if err := validRiskKind("stopLoss.kind", next.Kind, true); err != nil {
		return r, err
	}
	if err := validRiskValue("stopLoss.value", next.Value); err != nil {
		return r, err
	}
	out := r
	out.StopLoss = next
	if !next.Enabled {
		out.TrailingStopLoss.Enabled = false
	}
	return out, nil
}

// SetTargetProfit replaces the target-profit sub-config. Disabling it, or
// leaving it without a positive value, switches re-execute off.
func SetTargetProfit(r RiskConfig, next TargetProfitConfig) (RiskConfig, error) {
	if next.Kind == "" {
		next.Kind = r.TargetProfit.Kind
	}
	if err := validRiskKind("targetProfit.kind", next.Kind, false); err != nil {
		return r, err
	}
	if err := validRiskValue("targetProfit.value", next.Value); err != nil {
		return r, err
	}
	out := r
	out.TargetProfit = next
	if !IsValidTargetProfitForReExecute(next) {
		out.ReExecute.Enabled = false
	}
	return out, nil
}

// SetTrailingStopLoss replaces the trailing-stop-loss sub-config. Enabling
// it while the stop loss is disabled fails the precondition and leaves the
// config unchanged.
func SetTrailingStopLoss(r RiskConfig, next TrailingStopLossConfig) (RiskConfig, error) {
	if next.Kind == "" {
		next.Kind = r.TrailingStopLoss.Kind
	}
	if err := validRiskKind("trailingStopLoss.kind", next.Kind, false); err != nil {
		return r, err
	}
	if err := validRiskValue("trailingStopLoss.instrumentMoveValue", next.InstrumentMoveValue); err != nil {
		return r, err
	}
	if err := validRiskValue("trailingStopLoss.stopLossMoveValue", next.StopLossMoveValue); err != nil {
		return r, err
	}
	if next.Enabled && !r.StopLoss.Enabled {
		return r, &PreconditionFailedError{
			Op:      "setTrailingStopLoss",
			Message: "Trailing stop loss requires stop loss to be enabled",
		}
	}
	out := r
	out.TrailingStopLoss = next
	return out, nil
}

// SetWaitAndTrade replaces the wait-and-trade sub-config. It has no
// dependency on the other sub-configs.
func SetWaitAndTrade(r RiskConfig, next WaitAndTradeConfig) (RiskConfig, error) {
	if next.Kind == "" {
		next.Kind = r.WaitAndTrade.Kind
	}
	if err := validRiskKind("waitAndTrade.kind", next.Kind, false); err != nil {
		return r, err
	}
	if err := validRiskValue("waitAndTrade.value", next.Value); err != nil {
		return r, err
	}
	out := r
	out.WaitAndTrade = next
	return out, nil
}

// SetReEntry replaces the re-entry sub-config.
func SetReEntry(r RiskConfig, next ReEntryConfig) (RiskConfig, error) {
	if next.Kind == "" {
		next.Kind = r.ReEntry.Kind
	}
	if next.Count == 0 {
		next.Count = r.ReEntry.Count
	}
	if !next.Kind.Valid() {
		return r, NewInvalidField("reEntry.kind", next.Kind, "must be SL_REENTRY, SL_RECOST or SL_REEXEC")
	}
	if err := validRepeatCount("reEntry.count", next.Count); err != nil {
		return r, err
	}
	out := r
	out.ReEntry = next
	return out, nil
}

// SetReExecute replaces the re-execute sub-config. Enabling it requires a
// target profit that is enabled with a value greater than zero.
func SetReExecute(r RiskConfig, next ReExecuteConfig) (RiskConfig, error) {
	if next.Kind == "" {
		next.Kind = r.ReExecute.Kind
	}
	if next.Count == 0 {
		next.Count = r.ReExecute.Count
	}
	if next.Kind != ReExecuteTPReExec {
		return r, NewInvalidField("reExecute.kind", next.Kind, "must be TP_REEXEC")
	}
	if err := validRepeatCount("reExecute.count", next.Count); err != nil {
		return r, err
	}
	if next.Enabled && !IsValidTargetProfitForReExecute(r.TargetProfit) {
		return r, &PreconditionFailedError{
			Op:      "setReExecute",
			Message: "Re-execute requires target profit with a value greater than zero",
		}
	}
	out := r
	out.ReExecute = next
	return out, nil
}

// Violations re-checks the risk block from scratch and returns one
// human-readable message per breach. Stored drafts may predate a rule
// change, so the submission gate and the startup sanitizer call this
// instead of trusting that every past mutation went through the setters.
func (r RiskConfig) Violations() []string {
	var out []string
	if r.StopLoss.Enabled && !finiteNonNegative(r.StopLoss.Value) {
		out = append(out, "stop loss value must be a non-negative number")
	}
	if r.TargetProfit.Enabled && !finiteNonNegative(r.TargetProfit.Value) {
		out = append(out, "target profit value must be a non-negative number")
	}
	if r.TrailingStopLoss.Enabled {
		if !r.StopLoss.Enabled {
			out = append(out, "trailing stop loss requires stop loss to be enabled")
		}
		if !finiteNonNegative(r.TrailingStopLoss.InstrumentMoveValue) ||
			!finiteNonNegative(r.TrailingStopLoss.StopLossMoveValue) {
			out = append(out, "trailing stop loss move values must be non-negative numbers")
		}
	}
	if r.WaitAndTrade.Enabled && !finiteNonNegative(r.WaitAndTrade.Value) {
		out = append(out, "wait and trade value must be a non-negative number")
	}
	if r.ReEntry.Enabled && (r.ReEntry.Count < MinRepeatCount || r.ReEntry.Count > MaxRepeatCount) {
		out = append(out, fmt.Sprintf("re-entry count must be between %d and %d", MinRepeatCount, MaxRepeatCount))
	}
	if r.ReExecute.Enabled {
		if !IsValidTargetProfitForReExecute(r.TargetProfit) {
			out = append(out, "re-execute requires target profit with a value greater than zero")
		}
		if r.ReExecute.Count < MinRepeatCount || r.ReExecute.Count > MaxRepeatCount {
			out = append(out, fmt.Sprintf("re-execute count must be between %d and %d", MinRepeatCount, MaxRepeatCount))
		}
	}
	return out
}

// Sanitized forces the dependency rules back into shape and reports each
// repair. Used on drafts loaded from disk that an older build may have
// written with laxer rules.
func (r RiskConfig) Sanitized() (RiskConfig, []string) {
	out := r
	var repairs []string
	if out.TrailingStopLoss.Enabled && !out.StopLoss.Enabled {
		out.TrailingStopLoss.Enabled = false
		repairs = append(repairs, "disabled trailing stop loss: stop loss is off")
	}
	if out.ReExecute.Enabled && !IsValidTargetProfitForReExecute(out.TargetProfit) {
		out.ReExecute.Enabled = false
		repairs = append(repairs, "disabled re-execute: target profit is not positive")
	}
	if out.ReEntry.Enabled {
		if clamped := clampRepeatCount(out.ReEntry.Count); clamped != out.ReEntry.Count {
			out.ReEntry.Count = clamped
			repairs = append(repairs, fmt.Sprintf("clamped re-entry count to %d", clamped))
		}
	}
	if out.ReExecute.Enabled {
		if clamped := clampRepeatCount(out.ReExecute.Count); clamped != out.ReExecute.Count {
			out.ReExecute.Count = clamped
			repairs = append(repairs, fmt.Sprintf("clamped re-execute count to %d", clamped))
		}
	}
	return out, repairs
}

func clampRepeatCount(c int) int {
	return util.ClampInt(c, MinRepeatCount, MaxRepeatCount)
}

func validRiskKind(field string, k RiskKind, allowRange bool) error {
	switch k {
	case RiskKindPoints, RiskKindPercentage:
		return nil
	case RiskKindRange:
		if allowRange {
			return nil
		}
		return NewInvalidField(field, k, "RANGE is only valid for stop loss")
	default:
		return NewInvalidField(field, k, "must be POINTS or PERCENTAGE")
	}
}

func validRiskValue(field string, v float64) error {
	if !isFinite(v) {
		return NewInvalidField(field, v, "must be a finite number")
	}
	if v < 0 {
		return NewInvalidField(field, v, "must not be negative")
	}
	return nil
}

func validRepeatCount(field string, c int) error {
	if c < MinRepeatCount || c > MaxRepeatCount {
		return NewInvalidField(field, c, fmt.Sprintf("must be between %d and %d", MinRepeatCount, MaxRepeatCount))
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteNonNegative(v float64) bool {
	return isFinite(v) && v >= 0
}

package models

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// riskOp is one randomized setter application. Which setter runs is
// picked by Code; the remaining fields parameterize it, deliberately
// including values the setters must reject.
type riskOp struct {
	code    int
	enabled bool
	kind    string
	value   float64
	value2  float64
	count   int
}

func applyRiskOp(r RiskConfig, op riskOp) (RiskConfig, error) {
	switch op.code % 6 {
	case 0:
		return SetStopLoss(r, StopLossConfig{Enabled: op.enabled, Kind: RiskKind(op.kind), Value: op.value})
	case 1:
		return SetTargetProfit(r, TargetProfitConfig{Enabled: op.enabled, Kind: RiskKind(op.kind), Value: op.value})
	case 2:
		return SetTrailingStopLoss(r, TrailingStopLossConfig{
			Enabled:             op.enabled,
			Kind:                RiskKind(op.kind),
			InstrumentMoveValue: op.value,
			StopLossMoveValue:   op.value2,
		})
	case 3:
		return SetWaitAndTrade(r, WaitAndTradeConfig{Enabled: op.enabled, Kind: RiskKind(op.kind), Value: op.value})
	case 4:
		return SetReEntry(r, ReEntryConfig{Enabled: op.enabled, Kind: ReEntryKind(op.kind), Count: op.count})
	default:
		return SetReExecute(r, ReExecuteConfig{Enabled: op.enabled, Kind: ReExecuteKind(op.kind), Count: op.count})
	}
}

func genRiskOp() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 5),
		gen.Bool(),
		gen.OneConstOf("POINTS", "PERCENTAGE", "RANGE", "SL_REENTRY", "SL_RECOST", "SL_REEXEC", "TP_REEXEC", ""),
		gen.Float64Range(0, 500),
		gen.Float64Range(0, 500),
		gen.IntRange(-1, 8),
	).Map(func(vals []interface{}) riskOp {
		return riskOp{
			code:    vals[0].(int),
			enabled: vals[1].(bool),
			kind:    vals[2].(string),
			value:   vals[3].(float64),
			value2:  vals[4].(float64),
			count:   vals[5].(int),
		}
	})
}

// Property: no sequence of setter calls, whatever its parameters, can
// leave the risk config violating the dependency graph. Rejected calls
// must leave the config byte-identical.
func TestProperty_RiskInvariantsHoldUnderMutationSequences(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("setter sequences preserve risk invariants", prop.ForAll(
		func(ops []riskOp) bool {
			r := DefaultRiskConfig()
			for _, op := range ops {
				before := r
				next, err := applyRiskOp(r, op)
				if err != nil {
					if !reflect.DeepEqual(before, next) {
						t.Logf("FAILED: rejected op %+v modified the config", op)
						return false
					}
					continue
				}
				r = next
				if violations := r.Violations(); len(violations) != 0 {
					t.Logf("FAILED: op %+v produced violations %v", op, violations)
					return false
				}
				if r.TrailingStopLoss.Enabled && !r.StopLoss.Enabled {
					t.Logf("FAILED: trailing stop loss enabled without stop loss after %+v", op)
					return false
				}
				if r.ReExecute.Enabled && !IsValidTargetProfitForReExecute(r.TargetProfit) {
					t.Logf("FAILED: re-execute enabled without valid target profit after %+v", op)
					return false
				}
			}
			return true
		},
		gen.SliceOf(genRiskOp()),
	))

	properties.TestingRun(t)
}

// Property: every setter is idempotent. Applying the same call to its
// own successful result changes nothing.
func TestProperty_RiskSettersIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("setters are idempotent", prop.ForAll(
		func(setup []riskOp, op riskOp) bool {
			r := DefaultRiskConfig()
			for _, s := range setup {
				if next, err := applyRiskOp(r, s); err == nil {
					r = next
				}
			}
			once, err := applyRiskOp(r, op)
			if err != nil {
				return true
			}
			twice, err := applyRiskOp(once, op)
			if err != nil {
				t.Logf("FAILED: op %+v succeeded once then failed on its own result: %v", op, err)
				return false
			}
			if !reflect.DeepEqual(once, twice) {
				t.Logf("FAILED: op %+v is not idempotent:\n once: %+v\ntwice: %+v", op, once, twice)
				return false
			}
			return true
		},
		gen.SliceOf(genRiskOp()),
		genRiskOp(),
	))

	properties.TestingRun(t)
}

// Property: a config reached only through successful setter calls never
// needs repairs from the startup sanitizer.
func TestProperty_SetterBuiltConfigsNeedNoRepair(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("sanitizer is a no-op on setter-built configs", prop.ForAll(
		func(ops []riskOp) bool {
			r := DefaultRiskConfig()
			for _, op := range ops {
				if next, err := applyRiskOp(r, op); err == nil {
					r = next
				}
			}
			fixed, repairs := r.Sanitized()
			if len(repairs) != 0 {
				t.Logf("FAILED: sanitizer repaired a setter-built config: %v", repairs)
				return false
			}
			if !reflect.DeepEqual(r, fixed) {
				t.Logf("FAILED: sanitizer changed a setter-built config")
				return false
			}
			return true
		},
		gen.SliceOf(genRiskOp()),
	))

	properties.TestingRun(t)
}

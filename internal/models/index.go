package models

import "github.com/quantrail/stratforge/internal/util"

// IndexSymbol identifies a tradable index underlying.
type IndexSymbol string

const (
	IndexNifty     IndexSymbol = "NIFTY"
	IndexBankNifty IndexSymbol = "BANKNIFTY"
	IndexFinNifty  IndexSymbol = "FINNIFTY"
)

// Valid reports whether s is one of the supported indices.
func (s IndexSymbol) Valid() bool {
	switch s {
	case IndexNifty, IndexBankNifty, IndexFinNifty:
		return true
	default:
		return false
	}
}

// AllIndexSymbols returns the supported indices in display order.
func AllIndexSymbols() []IndexSymbol {
	return []IndexSymbol{IndexNifty, IndexBankNifty, IndexFinNifty}
}

// IndexSpec carries the per-index contract constants: shares per lot, the
// distance between adjacent strikes, and the reference price ATM labels
// are anchored on. Labels resolve to real strikes downstream at order
// time; the reference here only feeds indicative displays and quantity
// math.
type IndexSpec struct {
	Symbol       IndexSymbol `json:"symbol"`
	LotSize      int         `json:"lot_size"`
	StrikeStep   float64     `json:"strike_step"`
	ATMReference float64     `json:"atm_reference"`
}

// IndicativeATMStrike is the reference price rounded to the nearest
// strike. Display hint only.
func (s IndexSpec) IndicativeATMStrike() float64 {
	return util.RoundToStep(s.ATMReference, s.StrikeStep)
}

// IndexSpecs maps symbols to their contract constants.
type IndexSpecs map[IndexSymbol]IndexSpec

var defaultIndexSpecs = IndexSpecs{
	IndexNifty:     {Symbol: IndexNifty, LotSize: 75, StrikeStep: 50, ATMReference: 24800},
	IndexBankNifty: {Symbol: IndexBankNifty, LotSize: 35, StrikeStep: 100, ATMReference: 55400},
	IndexFinNifty:  {Symbol: IndexFinNifty, LotSize: 65, StrikeStep: 50, ATMReference: 26400},
}

// DefaultIndexSpecs returns a copy of the compiled-in table. The service
// config may override entries as lot sizes or reference levels move.
func DefaultIndexSpecs() IndexSpecs {
	out := make(IndexSpecs, len(defaultIndexSpecs))
	for k, v := range defaultIndexSpecs {
		out[k] = v
	}
	return out
}

// Lookup resolves sym against the table, falling back to the compiled-in
// defaults for symbols the table does not carry.
func (t IndexSpecs) Lookup(sym IndexSymbol) (IndexSpec, bool) {
	if t != nil {
		if spec, ok := t[sym]; ok {
			return spec, true
		}
	}
	spec, ok := defaultIndexSpecs[sym]
	return spec, ok
}

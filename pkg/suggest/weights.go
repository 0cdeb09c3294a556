package suggest

// Weights holds the edit-cost constants and training deltas for one entry
// kind. The start-of-string variants apply to the first token grapheme
// only; every later position uses the base cost.
type Weights struct {
	MaxCostSum float64 `json:"maxCostSum" toml:"max_cost_sum"`

	CostIsEqual             float64 `json:"costIsEqual" toml:"cost_is_equal"`
	CostIsEqualIgnoringCase float64 `json:"costIsEqualIgnoringCase" toml:"cost_is_equal_ignoring_case"`

	CostInsert           float64 `json:"costInsert" toml:"cost_insert"`
	CostInsertStartOfStr float64 `json:"costInsertStartOfStr" toml:"cost_insert_start_of_str"`

	CostDelete           float64 `json:"costDelete" toml:"cost_delete"`
	CostDeleteStartOfStr float64 `json:"costDeleteStartOfStr" toml:"cost_delete_start_of_str"`

	CostSubstitute            float64 `json:"costSubstitute" toml:"cost_substitute"`
	CostSubstituteStartOfStr  float64 `json:"costSubstituteStartOfStr" toml:"cost_substitute_start_of_str"`
	CostSubstituteInProximity float64 `json:"costSubstituteInProximity" toml:"cost_substitute_in_proximity"`

	CostTranspose float64 `json:"costTranspose" toml:"cost_transpose"`

	UsageBonus           int `json:"usageBonus" toml:"usage_bonus"`
	UsageReductionOthers int `json:"usageReductionOthers" toml:"usage_reduction_others"`
}

// PredictionWeights bundles the per-kind weight sets a session carries.
type PredictionWeights struct {
	Words  Weights `json:"words" toml:"words"`
	Ngrams Weights `json:"ngrams" toml:"ngrams"`
}

// DefaultWeights returns the stock cost table.
func DefaultWeights() Weights {
	return Weights{
		MaxCostSum:                6,
		CostIsEqual:               0,
		CostIsEqualIgnoringCase:   1,
		CostInsert:                2,
		CostInsertStartOfStr:      4,
		CostDelete:                2,
		CostDeleteStartOfStr:      4,
		CostSubstitute:            2,
		CostSubstituteStartOfStr:  4,
		CostSubstituteInProximity: 1,
		CostTranspose:             1,
		UsageBonus:                128,
		UsageReductionOthers:      8,
	}
}

// DefaultPredictionWeights returns the stock tables for both kinds.
func DefaultPredictionWeights() PredictionWeights {
	return PredictionWeights{
		Words:  DefaultWeights(),
		Ngrams: DefaultWeights(),
	}
}

func (w *Weights) insertCost(index int) float64 {
	if index == 1 {
		return w.CostInsertStartOfStr
	}
	return w.CostInsert
}

func (w *Weights) deleteCost(index int) float64 {
	if index == 1 {
		return w.CostDeleteStartOfStr
	}
	return w.CostDelete
}

func (w *Weights) substituteCost(index int) float64 {
	if index == 1 {
		return w.CostSubstituteStartOfStr
	}
	return w.CostSubstitute
}

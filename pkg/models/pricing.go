package models

import "math"

// costPrecision is the number of decimal places costs are rounded to.
const costPrecision = 1e6

// ModelPrice holds the unit prices for one model, expressed in USD per
// million tokens.
type ModelPrice struct {
	InputPerMTok  float64 `yaml:"input_per_mtok" json:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok" json:"output_per_mtok"`
}

// PriceTable maps model identifiers to unit prices. Unknown models fall
// back to Default, so cost derivation never fails on a new model name.
type PriceTable struct {
	Models  map[string]ModelPrice `yaml:"models" json:"models"`
	Default ModelPrice            `yaml:"default" json:"default"`
}

// Cost computes the derived cost of a token spend, rounded to six decimal
// places.
func (t PriceTable) Cost(model string, inputTokens, outputTokens int64) float64 {
	price, ok := t.Models[model]
	if !ok {
		price = t.Default
	}
	cost := float64(inputTokens)*price.InputPerMTok/1e6 +
		float64(outputTokens)*price.OutputPerMTok/1e6
	return math.Round(cost*costPrecision) / costPrecision
}

// Package estimate provides token-count estimation for producers that do
// not receive exact counts from their model provider. Estimation is a
// swappable policy: callers depend on the Estimator interface, and records
// produced from estimates carry the estimated flag.
package estimate

import (
	"strings"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

// charsPerToken is the fallback approximation ratio used when no tokenizer
// is available for a model.
const charsPerToken = 4

// Estimator approximates the number of tokens a text encodes to for a
// given model. The second return value reports whether a real tokenizer
// was used (false means a length-based approximation).
type Estimator interface {
	Estimate(model, text string) (int64, bool)
}

// tiktokenEstimator estimates with a BPE tokenizer when the model is
// recognized and falls back to a character-length heuristic otherwise.
type tiktokenEstimator struct {
	fallback Estimator
}

// New returns the default Estimator: tiktoken-backed with a length-based
// fallback for unknown models.
func New() Estimator {
	return &tiktokenEstimator{fallback: LengthEstimator{}}
}

func (e *tiktokenEstimator) Estimate(model, text string) (int64, bool) {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		// Unknown model name: try the common cl100k encoding for
		// anything that looks like a chat or embedding model.
		if strings.Contains(model, "gpt") || strings.Contains(model, "embed") {
			codec, err = tokenizer.Get(tokenizer.Cl100kBase)
		}
	}
	if err != nil || codec == nil {
		return e.fallback.Estimate(model, text)
	}
	n, err := codec.Count(text)
	if err != nil {
		return e.fallback.Estimate(model, text)
	}
	return int64(n), true
}

// LengthEstimator approximates tokens as characters divided by four. It is
// deliberately crude; records produced from it must carry estimated=true.
type LengthEstimator struct{}

func (LengthEstimator) Estimate(_, text string) (int64, bool) {
	n := utf8.RuneCountInString(text)
	count := int64(n / charsPerToken)
	if n > 0 && count == 0 {
		count = 1
	}
	return count, false
}

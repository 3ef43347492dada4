// Package oracle adapts external win-probability estimators behind a
// narrow batched interface. The core treats the estimator as a black box:
// it sends one request per batch of matches and gets back a parallel
// array of predictions. Prompt wording, providers, and parsing live here
// and never leak into the pipeline.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tenntrend/engine/pkg/market"
)

// Prediction is the oracle's estimate for one match. The slice returned
// by Predict is indexed by batch position; a nil entry means the oracle
// returned no prediction for that index and the record stays unanalyzed.
type Prediction struct {
	WinProbability float64           `json:"winProbability"` // 0-100, home side
	Confidence     market.Confidence `json:"confidence"`
	Reasoning      string            `json:"reasoning"`
}

// Adapter is a win-probability oracle. One call covers a whole batch;
// callers never mix predictions from different calls in one ranking pass.
type Adapter interface {
	Predict(ctx context.Context, matches []market.MatchRecord) ([]*Prediction, error)
	Name() string
}

// ErrUnavailable marks provider-side failure: network, auth, quota,
// overload. It routes the batch to the fallback oracle.
var ErrUnavailable = errors.New("oracle unavailable")

// ParseError reports a malformed oracle response. Treated identically to
// unavailability: fallback first, then the empty-batch default.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("oracle parse failure: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Chain tries adapters in order until one succeeds, the secondary-oracle
// fallback path. Every error is recoverable by the next adapter; only the
// last error surfaces.
type Chain struct {
	adapters []Adapter
}

// NewChain builds a fallback chain. At least one adapter is required.
func NewChain(adapters ...Adapter) *Chain {
	return &Chain{adapters: adapters}
}

// Predict implements Adapter.
func (c *Chain) Predict(ctx context.Context, matches []market.MatchRecord) ([]*Prediction, error) {
	if len(c.adapters) == 0 {
		return nil, fmt.Errorf("%w: no adapters configured", ErrUnavailable)
	}

	var lastErr error
	for _, a := range c.adapters {
		preds, err := a.Predict(ctx, matches)
		if err != nil {
			log.Printf("[Oracle] %s failed: %v", a.Name(), err)
			lastErr = err
			continue
		}
		return preds, nil
	}
	return nil, fmt.Errorf("all oracles failed, last error: %w", lastErr)
}

// Name implements Adapter.
func (c *Chain) Name() string { return "chain" }

// Apply merges a prediction array onto a batch of records and computes
// the derived EV fields. Records with a nil prediction stay unanalyzed.
// Called with preds == nil it applies the documented full-batch fallback:
// all records unanalyzed, EV zero, low confidence.
func Apply(matches []market.MatchRecord, preds []*Prediction) []market.MatchRecord {
	out := make([]market.MatchRecord, len(matches))
	for i, m := range matches {
		if i < len(preds) && preds[i] != nil {
			p := preds[i]
			m.Analyzed = true
			m.WinProbability = p.WinProbability
			m.Confidence = p.Confidence
			m.Reasoning = p.Reasoning
		} else {
			m.Analyzed = false
			m.Confidence = market.ConfidenceLow
			m.Reasoning = "oracle unavailable"
		}
		market.Analyze(&m)
		out[i] = m
	}
	return out
}

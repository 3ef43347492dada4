package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tenntrend/engine/pkg/market"
)

// systemPrompt frames the model as a calibrated betting analyst. The
// response contract is a bare JSON array, parallel to the batch by
// gameIndex.
const systemPrompt = `You are an elite tennis betting analyst. Provide realistic win probabilities based on player performance, surface, and head-to-head records. Be conservative - markets are generally efficient and massive edges are extremely rare. Return ONLY valid JSON.`

// LLM is an Adapter backed by one hosted language model. All matches go
// into a single prompt; the response is a parallel JSON array.
type LLM struct {
	client Completer
}

// NewLLM wraps a completion client as an oracle adapter.
func NewLLM(client Completer) *LLM {
	return &LLM{client: client}
}

// Name implements Adapter.
func (l *LLM) Name() string { return l.client.Name() }

// Predict implements Adapter. The returned slice has one entry per input
// match; entries the model skipped are nil and the caller substitutes the
// unanalyzed default.
func (l *LLM) Predict(ctx context.Context, matches []market.MatchRecord) ([]*Prediction, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	response, err := l.client.Complete(ctx, systemPrompt, buildPrompt(matches))
	if err != nil {
		return nil, err
	}

	preds, err := parsePredictions(response, len(matches))
	if err != nil {
		return nil, err
	}
	return preds, nil
}

func buildPrompt(matches []market.MatchRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze these %d matches with the mindset of a sharp bettor looking for value.\n\n**Matches to Analyze:**\n", len(matches))
	for i, m := range matches {
		fmt.Fprintf(&b, "\n%d. %s: %s vs %s\n", i+1, m.League, m.HomeTeam, m.AwayTeam)
		fmt.Fprintf(&b, "   - Start Time: %s\n", m.StartTime.Format("Jan 2, 15:04"))
		fmt.Fprintf(&b, "   - Current Odds: %.2f (implied probability: %.1f%%)\n", m.MarketOdd, m.MarketProb)
	}

	fmt.Fprintf(&b, `
**Your Task:**
For each match, provide:
1. Player 1 Win Probability (0-100): your realistic assessment of the first player's win chance
2. Reasoning (2-3 sentences): explain the probability AND the betting angle - why is or isn't this a value bet
3. Confidence (high/medium/low)

Be conservative: if you disagree with market odds by more than 15-20%%, double-check your reasoning. Markets are generally efficient.

Return ONLY a JSON array with exactly %d predictions:
[
  {
    "gameIndex": 0,
    "homeWinProbability": 58,
    "reasoning": "Strong form on hard court and market undervalues consistency. VALUE: underpriced favorite.",
    "confidence": "medium"
  }
]`, len(matches))

	return b.String()
}

// rawPrediction is the wire shape of one model prediction.
type rawPrediction struct {
	GameIndex          int     `json:"gameIndex"`
	HomeWinProbability float64 `json:"homeWinProbability"`
	Reasoning          string  `json:"reasoning"`
	Confidence         string  `json:"confidence"`
}

func parsePredictions(response string, n int) ([]*Prediction, error) {
	jsonText := extractJSONArray(stripCodeFences(response))
	if jsonText == "" {
		return nil, &ParseError{Raw: clip(response), Err: fmt.Errorf("no JSON array found in response")}
	}

	var raws []rawPrediction
	if err := json.Unmarshal([]byte(jsonText), &raws); err != nil {
		return nil, &ParseError{Raw: clip(response), Err: err}
	}

	preds := make([]*Prediction, n)
	for _, r := range raws {
		if r.GameIndex < 0 || r.GameIndex >= n {
			log.Printf("[Oracle] dropping prediction with out-of-range index %d", r.GameIndex)
			continue
		}

		p := r.HomeWinProbability
		// Models occasionally answer on the 0-1 scale.
		if p > 0 && p <= 1 {
			p *= 100
		}
		if p < 0 || p > 100 {
			log.Printf("[Oracle] dropping prediction %d: probability out of range (%.2f)", r.GameIndex, r.HomeWinProbability)
			continue
		}

		preds[r.GameIndex] = &Prediction{
			WinProbability: p,
			Confidence:     parseConfidence(r.Confidence),
			Reasoning:      r.Reasoning,
		}
	}

	return preds, nil
}

func parseConfidence(s string) market.Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return market.ConfidenceHigh
	case "low":
		return market.ConfidenceLow
	default:
		return market.ConfidenceMedium
	}
}

// stripCodeFences removes ```json ... ``` wrappers.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// extractJSONArray finds the first complete top-level JSON array.
func extractJSONArray(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, c := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start != -1 {
				inString = true
			}
		case '[':
			if start == -1 {
				start = i
			}
			depth++
		case ']':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func clip(s string) string {
	if len(s) > 300 {
		return s[:300]
	}
	return s
}

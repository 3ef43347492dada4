// Package market holds the normalized match model and the deterministic
// value-bet pipeline: expected-value computation, tier classification,
// and bet selection.
package market

import (
	"time"
)

// League identifies the tour or league a match belongs to.
type League string

const (
	LeagueATP League = "ATP"
	LeagueWTA League = "WTA"
	// Hockey variant leagues share the same pipeline.
	LeagueNHL         League = "NHL"
	LeagueSHL         League = "SHL"
	LeagueAllsvenskan League = "Allsvenskan"
)

// Confidence is the oracle's self-reported confidence in a prediction.
// It is a secondary selection signal only, never used alone.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Tier is the qualitative EV bucket assigned by ClassifyTier.
type Tier string

const (
	TierStrong Tier = "STRONG"
	TierElite  Tier = "ELITE"
	TierSick   Tier = "SICK"
	// TierNone marks a record below the minimum EV threshold.
	TierNone Tier = ""
)

// Rank orders tiers for sorting: SICK > ELITE > STRONG > none.
func (t Tier) Rank() int {
	switch t {
	case TierSick:
		return 3
	case TierElite:
		return 2
	case TierStrong:
		return 1
	default:
		return 0
	}
}

// MatchRecord is one scheduled or completed contest, normalized from
// whatever upstream provider supplied it. marketOdd is the best (highest)
// decimal odds observed across bookmakers for the home-side outcome.
type MatchRecord struct {
	ID        string    `json:"id"`
	League    League    `json:"league"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	StartTime time.Time `json:"startTime"`
	MarketOdd float64   `json:"marketOdd"`

	// MarketProb is always recomputed from MarketOdd, never trusted
	// from upstream fields.
	MarketProb float64 `json:"marketProb"`

	// Oracle outputs. Analyzed is false until the oracle has supplied a
	// prediction for this record; an unanalyzed record is excluded from
	// tiering and selection, not treated as EV = 0.
	Analyzed       bool       `json:"analyzed"`
	WinProbability float64    `json:"winProbability"` // 0-100, home side
	Confidence     Confidence `json:"confidence,omitempty"`
	Reasoning      string     `json:"reasoning,omitempty"`

	// Derived.
	ExpectedValue float64 `json:"expectedValue"`
	Tier          Tier    `json:"tier,omitempty"`
}

// ImpliedProbability converts decimal odds to implied probability percent.
func ImpliedProbability(odd float64) float64 {
	return 1 / odd * 100
}

// Valid reports whether the record satisfies the data invariants.
// Invalid records are dropped from the pipeline by callers, with the
// reason logged; they must never reach sorting with a NaN/Inf EV.
func (m *MatchRecord) Valid() bool {
	if m.MarketOdd <= 1.0 {
		return false
	}
	if m.HomeTeam == "" || m.AwayTeam == "" {
		return false
	}
	return true
}

// Summary aggregates one scan run for the UI payload.
type Summary struct {
	TotalGamesAnalyzed int     `json:"totalGamesAnalyzed"`
	ValueBetsFound     int     `json:"valueBetsFound"`
	SafeBetsFound      int     `json:"safeBetsFound"`
	AvgEV              float64 `json:"avgEV"`
}

// Picks is the daily selection payload consumed by the UI, the Discord
// notifier, and the history store. Selection produces data only; rendering
// and persistence live elsewhere.
type Picks struct {
	RunID       string        `json:"runId"`
	Timestamp   time.Time     `json:"timestamp"`
	ValueBets   []MatchRecord `json:"valueBets"`
	SafeBets    []MatchRecord `json:"safeBets"`
	BetOfTheDay *MatchRecord  `json:"betOfTheDay"`
	Summary     Summary       `json:"summary"`
}

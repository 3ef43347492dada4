package market

// EV tier thresholds, in expected-value percent. Boundaries are inclusive
// on the lower bound: classification checks from the top down.
const (
	// MinEVThreshold is the floor below which a bet is excluded from
	// value-bet consideration entirely.
	MinEVThreshold = 3.0

	TierStrongMin = 3.0
	TierEliteMin  = 6.0
	TierSickMin   = 10.0
)

// ExpectedValue returns the expected value per unit stake as a percentage.
//
//	EV% = (winProbability/100 * marketOdd - 1) * 100
//
// winProbability is in [0,100], marketOdd is decimal odds > 1.0.
// No rounding happens here; callers decide display precision (the UI
// convention is one decimal place). winProbability 0 yields -100 and
// 100 yields (marketOdd-1)*100 with no special-casing.
func ExpectedValue(marketOdd, winProbability float64) float64 {
	return (winProbability/100*marketOdd - 1) * 100
}

// ClassifyTier maps an EV value to its tier, or TierNone below the
// minimum threshold. Pure function of ev: no hysteresis, no history.
func ClassifyTier(ev float64) Tier {
	switch {
	case ev >= TierSickMin:
		return TierSick
	case ev >= TierEliteMin:
		return TierElite
	case ev >= TierStrongMin:
		return TierStrong
	default:
		return TierNone
	}
}

// Analyze fills the derived fields of a record from its oracle prediction.
// Records that are invalid or unanalyzed are left untouched.
func Analyze(m *MatchRecord) {
	m.MarketProb = ImpliedProbability(m.MarketOdd)
	if !m.Analyzed || !m.Valid() {
		return
	}
	m.ExpectedValue = ExpectedValue(m.MarketOdd, m.WinProbability)
	m.Tier = ClassifyTier(m.ExpectedValue)
}

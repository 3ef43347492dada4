package market

import (
	"sort"
)

// SelectorConfig tunes bet selection. The defaults are the observed
// production values; none of them is derived from first principles, so
// they stay configuration rather than constants.
type SelectorConfig struct {
	// Safe-bet favorite band: odds within [SafeMinOdds, SafeMaxOdds].
	SafeMinOdds float64
	SafeMaxOdds float64
	// SafeMinProbability is the oracle win-probability floor (percent).
	SafeMinProbability float64
	// SafeProbGapMargin: probability gaps larger than this dominate the
	// safe-bet sort; smaller gaps defer to the lower (safer) odds.
	SafeProbGapMargin float64

	// Bet-of-the-day composite weights. Relative ordering matters more
	// than the literal constants: tier > EV > confidence > context.
	TierWeight       float64
	EVWeight         float64
	ConfidenceWeight float64
	ContextWeight    float64

	// LeagueScores is the per-league context bonus table. Leagues not
	// present score ContextDefault.
	LeagueScores   map[League]float64
	ContextDefault float64
}

// DefaultSelectorConfig returns the observed production configuration.
func DefaultSelectorConfig() *SelectorConfig {
	return &SelectorConfig{
		SafeMinOdds:        1.20,
		SafeMaxOdds:        1.60,
		SafeMinProbability: 65,
		SafeProbGapMargin:  5,

		TierWeight:       0.30,
		EVWeight:         0.35,
		ConfidenceWeight: 0.25,
		ContextWeight:    0.10,

		LeagueScores: map[League]float64{
			LeagueATP:         100,
			LeagueWTA:         100,
			LeagueNHL:         100,
			LeagueSHL:         80,
			LeagueAllsvenskan: 60,
		},
		ContextDefault: 60,
	}
}

// Selector filters and ranks analyzed records into the daily picks.
// Selection is pure: it produces the three output sets and nothing else.
type Selector struct {
	config *SelectorConfig
}

// NewSelector creates a selector. A nil config uses the defaults.
func NewSelector(config *SelectorConfig) *Selector {
	if config == nil {
		config = DefaultSelectorConfig()
	}
	return &Selector{config: config}
}

// ValueBets returns every analyzed record with a tier, sorted by
// (tier rank desc, EV desc). Tier dominates: a borderline SICK bet always
// outranks a high STRONG bet. The sort is stable, so input order breaks
// ties.
func (s *Selector) ValueBets(records []MatchRecord) []MatchRecord {
	var bets []MatchRecord
	for _, m := range records {
		if m.Analyzed && m.Tier != TierNone {
			bets = append(bets, m)
		}
	}

	sort.SliceStable(bets, func(i, j int) bool {
		ri, rj := bets[i].Tier.Rank(), bets[j].Tier.Rank()
		if ri != rj {
			return ri > rj
		}
		return bets[i].ExpectedValue > bets[j].ExpectedValue
	})

	return bets
}

// SafeBets returns high-probability favorites: analyzed records with odds
// inside the favorite band AND win probability at or above the floor.
// The filter is a pure conjunction. The two-level comparator is
// intentional: large confidence gaps dominate, small gaps defer to risk.
func (s *Selector) SafeBets(records []MatchRecord) []MatchRecord {
	var bets []MatchRecord
	for _, m := range records {
		if !m.Analyzed {
			continue
		}
		if m.MarketOdd < s.config.SafeMinOdds || m.MarketOdd > s.config.SafeMaxOdds {
			continue
		}
		if m.WinProbability < s.config.SafeMinProbability {
			continue
		}
		bets = append(bets, m)
	}

	sort.SliceStable(bets, func(i, j int) bool {
		gap := bets[i].WinProbability - bets[j].WinProbability
		if gap > s.config.SafeProbGapMargin || gap < -s.config.SafeProbGapMargin {
			return bets[i].WinProbability > bets[j].WinProbability
		}
		return bets[i].MarketOdd < bets[j].MarketOdd
	})

	return bets
}

// BetOfTheDay picks the single best recommendation from the value-bet set
// by maximizing the weighted composite score. An empty set yields nil,
// never an error. Ties keep the earlier candidate (stable).
func (s *Selector) BetOfTheDay(valueBets []MatchRecord) *MatchRecord {
	if len(valueBets) == 0 {
		return nil
	}

	best := valueBets[0]
	bestScore := s.Score(&best)
	for _, m := range valueBets[1:] {
		if sc := s.Score(&m); sc > bestScore {
			best, bestScore = m, sc
		}
	}
	return &best
}

// Score computes the composite bet-of-the-day score.
func (s *Selector) Score(m *MatchRecord) float64 {
	return tierScore(m.Tier)*s.config.TierWeight +
		m.ExpectedValue*s.config.EVWeight +
		confidenceScore(m.Confidence)*s.config.ConfidenceWeight +
		s.leagueScore(m.League)*s.config.ContextWeight
}

// Select runs all three selection paths over one enriched match set and
// assembles the picks payload. Persistence is a separate, explicit step.
func (s *Selector) Select(records []MatchRecord) *Picks {
	valueBets := s.ValueBets(records)
	safeBets := s.SafeBets(records)

	analyzed := 0
	for _, m := range records {
		if m.Analyzed {
			analyzed++
		}
	}

	avgEV := 0.0
	if len(valueBets) > 0 {
		sum := 0.0
		for _, b := range valueBets {
			sum += b.ExpectedValue
		}
		avgEV = sum / float64(len(valueBets))
	}

	return &Picks{
		ValueBets:   valueBets,
		SafeBets:    safeBets,
		BetOfTheDay: s.BetOfTheDay(valueBets),
		Summary: Summary{
			TotalGamesAnalyzed: analyzed,
			ValueBetsFound:     len(valueBets),
			SafeBetsFound:      len(safeBets),
			AvgEV:              avgEV,
		},
	}
}

func tierScore(t Tier) float64 {
	switch t {
	case TierSick:
		return 200
	case TierElite:
		return 150
	case TierStrong:
		return 100
	default:
		return 0
	}
}

func confidenceScore(c Confidence) float64 {
	switch c {
	case ConfidenceHigh:
		return 100
	case ConfidenceMedium:
		return 60
	default:
		return 20
	}
}

func (s *Selector) leagueScore(l League) float64 {
	if score, ok := s.config.LeagueScores[l]; ok {
		return score
	}
	return s.config.ContextDefault
}

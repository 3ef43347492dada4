package market

import (
	"math"
	"testing"
)

func analyzed(home string, odd, prob float64) MatchRecord {
	m := MatchRecord{
		HomeTeam:       home,
		AwayTeam:       "Opponent",
		League:         LeagueATP,
		MarketOdd:      odd,
		Analyzed:       true,
		WinProbability: prob,
		Confidence:     ConfidenceMedium,
	}
	Analyze(&m)
	return m
}

func TestSelector_ValueBets(t *testing.T) {
	s := NewSelector(nil)

	records := []MatchRecord{
		analyzed("strong-high", 2.0, 52.9), // EV 5.8, STRONG
		analyzed("sick-low", 2.0, 55.1),    // EV 10.2, SICK
		analyzed("below-floor", 2.0, 51),   // EV 2.0, excluded
		analyzed("elite", 2.0, 54),         // EV 8.0, ELITE
	}

	bets := s.ValueBets(records)
	if len(bets) != 3 {
		t.Fatalf("got %d value bets, want 3", len(bets))
	}

	// Tier dominates EV: the borderline SICK bet leads despite having
	// lower EV headroom than a theoretical high STRONG.
	wantOrder := []string{"sick-low", "elite", "strong-high"}
	for i, want := range wantOrder {
		if bets[i].HomeTeam != want {
			t.Errorf("bets[%d] = %s, want %s", i, bets[i].HomeTeam, want)
		}
	}
}

func TestSelector_ValueBets_ExcludesUnanalyzed(t *testing.T) {
	s := NewSelector(nil)

	m := analyzed("ghost", 2.0, 60)
	m.Analyzed = false

	if bets := s.ValueBets([]MatchRecord{m}); len(bets) != 0 {
		t.Errorf("unanalyzed record selected as value bet")
	}
}

func TestSelector_SafeBets(t *testing.T) {
	s := NewSelector(nil)

	tests := []struct {
		name string
		odd  float64
		prob float64
		want bool
	}{
		{"in band, high prob", 1.45, 70, true},
		{"in band, low prob", 1.45, 60, false},
		{"below band", 1.15, 80, false},
		{"above band", 1.70, 80, false},
		{"band edges inclusive low", 1.20, 65, true},
		{"band edges inclusive high", 1.60, 65, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bets := s.SafeBets([]MatchRecord{analyzed("x", tt.odd, tt.prob)})
			if got := len(bets) == 1; got != tt.want {
				t.Errorf("SafeBets(odd=%v, prob=%v) selected=%v, want %v", tt.odd, tt.prob, got, tt.want)
			}
		})
	}
}

func TestSelector_SafeBets_Ordering(t *testing.T) {
	s := NewSelector(nil)

	records := []MatchRecord{
		analyzed("close-higher-odds", 1.55, 68),
		analyzed("close-lower-odds", 1.30, 66),
		analyzed("dominant-prob", 1.58, 80),
	}

	bets := s.SafeBets(records)
	if len(bets) != 3 {
		t.Fatalf("got %d safe bets, want 3", len(bets))
	}

	// 80 vs 68 is a >5 point gap, so probability wins; 68 vs 66 is
	// within the margin, so the lower odds go first.
	wantOrder := []string{"dominant-prob", "close-lower-odds", "close-higher-odds"}
	for i, want := range wantOrder {
		if bets[i].HomeTeam != want {
			t.Errorf("bets[%d] = %s, want %s", i, bets[i].HomeTeam, want)
		}
	}
}

func TestSelector_BetOfTheDay(t *testing.T) {
	s := NewSelector(nil)

	t.Run("empty input yields nil", func(t *testing.T) {
		if got := s.BetOfTheDay(nil); got != nil {
			t.Errorf("BetOfTheDay(nil) = %v, want nil", got)
		}
	})

	t.Run("higher tier beats higher EV weight alone", func(t *testing.T) {
		strong := analyzed("strong", 2.0, 54.5) // EV 9.0, ELITE actually
		sick := analyzed("sick", 2.0, 55.5)     // EV 11.0, SICK
		best := s.BetOfTheDay(s.ValueBets([]MatchRecord{strong, sick}))
		if best == nil || best.HomeTeam != "sick" {
			t.Errorf("best = %+v, want sick", best)
		}
	})

	t.Run("confidence breaks near ties", func(t *testing.T) {
		a := analyzed("low-conf", 2.0, 56)
		a.Confidence = ConfidenceLow
		b := analyzed("high-conf", 2.0, 56)
		b.Confidence = ConfidenceHigh
		best := s.BetOfTheDay([]MatchRecord{a, b})
		if best == nil || best.HomeTeam != "high-conf" {
			t.Errorf("best = %+v, want high-conf", best)
		}
	})

	t.Run("exact ties keep the earlier candidate", func(t *testing.T) {
		a := analyzed("first", 2.0, 56)
		b := analyzed("second", 2.0, 56)
		best := s.BetOfTheDay([]MatchRecord{a, b})
		if best == nil || best.HomeTeam != "first" {
			t.Errorf("best = %+v, want first", best)
		}
	})
}

func TestSelector_Score(t *testing.T) {
	s := NewSelector(nil)

	m := analyzed("x", 2.0, 56) // EV 12, SICK
	m.Confidence = ConfidenceHigh

	// 200*0.30 + 12*0.35 + 100*0.25 + 100*0.10 = 99.2
	want := 99.2
	if got := s.Score(&m); math.Abs(got-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestSelector_Select(t *testing.T) {
	s := NewSelector(nil)

	records := []MatchRecord{
		analyzed("value", 2.0, 55),  // EV 10, SICK
		analyzed("safe", 1.40, 72),  // EV 0.8, safe bet only
		analyzed("nothing", 2.5, 38),
	}
	unanalyzed := MatchRecord{HomeTeam: "u", AwayTeam: "v", MarketOdd: 2.0}
	records = append(records, unanalyzed)

	picks := s.Select(records)

	if picks.Summary.TotalGamesAnalyzed != 3 {
		t.Errorf("TotalGamesAnalyzed = %d, want 3", picks.Summary.TotalGamesAnalyzed)
	}
	if len(picks.ValueBets) != 1 || picks.ValueBets[0].HomeTeam != "value" {
		t.Errorf("ValueBets = %+v, want single 'value' entry", picks.ValueBets)
	}
	if len(picks.SafeBets) != 1 || picks.SafeBets[0].HomeTeam != "safe" {
		t.Errorf("SafeBets = %+v, want single 'safe' entry", picks.SafeBets)
	}
	if picks.BetOfTheDay == nil || picks.BetOfTheDay.HomeTeam != "value" {
		t.Errorf("BetOfTheDay = %+v, want 'value'", picks.BetOfTheDay)
	}
	if math.Abs(picks.Summary.AvgEV-10) > 1e-9 {
		t.Errorf("AvgEV = %v, want 10", picks.Summary.AvgEV)
	}
}

package market

import (
	"math"
	"testing"
)

func TestExpectedValue(t *testing.T) {
	tests := []struct {
		name    string
		odd     float64
		winProb float64
		want    float64
	}{
		{"positive edge", 2.0, 60, 20},
		{"negative edge", 1.5, 50, -25},
		{"zero probability", 3.0, 0, -100},
		{"certain winner", 1.8, 100, 80},
		{"fair line", 2.0, 50, 0},
		{"big underdog edge", 2.76, 58, 60.08},
		{"tiny edge", 1.40, 72, 0.8},
		{"clear negative", 1.90, 40, -24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpectedValue(tt.odd, tt.winProb)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ExpectedValue(%v, %v) = %v, want %v", tt.odd, tt.winProb, got, tt.want)
			}
		})
	}
}

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		ev   float64
		want Tier
	}{
		{-5, TierNone},
		{0, TierNone},
		{2.99, TierNone},
		{3.0, TierStrong},
		{5.99, TierStrong},
		{6.0, TierElite},
		{9.99, TierElite},
		{10.0, TierSick},
		{42, TierSick},
	}

	for _, tt := range tests {
		if got := ClassifyTier(tt.ev); got != tt.want {
			t.Errorf("ClassifyTier(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestTierRankOrdering(t *testing.T) {
	if !(TierSick.Rank() > TierElite.Rank() && TierElite.Rank() > TierStrong.Rank() && TierStrong.Rank() > TierNone.Rank()) {
		t.Errorf("tier ranks not strictly ordered: sick=%d elite=%d strong=%d none=%d",
			TierSick.Rank(), TierElite.Rank(), TierStrong.Rank(), TierNone.Rank())
	}
}

func TestImpliedProbability(t *testing.T) {
	if got := ImpliedProbability(2.0); math.Abs(got-50) > 1e-9 {
		t.Errorf("ImpliedProbability(2.0) = %v, want 50", got)
	}
	if got := ImpliedProbability(1.25); math.Abs(got-80) > 1e-9 {
		t.Errorf("ImpliedProbability(1.25) = %v, want 80", got)
	}
}

func TestAnalyze(t *testing.T) {
	t.Run("analyzed record gets EV and tier", func(t *testing.T) {
		m := MatchRecord{
			HomeTeam:       "Alcaraz",
			AwayTeam:       "Sinner",
			MarketOdd:      2.0,
			Analyzed:       true,
			WinProbability: 60,
		}
		Analyze(&m)
		if math.Abs(m.ExpectedValue-20) > 1e-9 {
			t.Errorf("ExpectedValue = %v, want 20", m.ExpectedValue)
		}
		if m.Tier != TierSick {
			t.Errorf("Tier = %v, want %v", m.Tier, TierSick)
		}
		if math.Abs(m.MarketProb-50) > 1e-9 {
			t.Errorf("MarketProb = %v, want 50", m.MarketProb)
		}
	})

	t.Run("unanalyzed record keeps defaults", func(t *testing.T) {
		m := MatchRecord{
			HomeTeam:  "Alcaraz",
			AwayTeam:  "Sinner",
			MarketOdd: 2.0,
		}
		Analyze(&m)
		if m.ExpectedValue != 0 || m.Tier != TierNone {
			t.Errorf("unanalyzed record was classified: ev=%v tier=%v", m.ExpectedValue, m.Tier)
		}
		if math.Abs(m.MarketProb-50) > 1e-9 {
			t.Errorf("MarketProb = %v, want 50 even when unanalyzed", m.MarketProb)
		}
	})

	t.Run("invalid odds stay unclassified", func(t *testing.T) {
		m := MatchRecord{
			HomeTeam:       "Alcaraz",
			AwayTeam:       "Sinner",
			MarketOdd:      1.0,
			Analyzed:       true,
			WinProbability: 90,
		}
		Analyze(&m)
		if m.Tier != TierNone {
			t.Errorf("invalid record classified as %v", m.Tier)
		}
	})
}

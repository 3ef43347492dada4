package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tenntrend/engine/pkg/market"
)

func samplePicks() *market.Picks {
	bet := market.MatchRecord{
		League:         market.LeagueATP,
		HomeTeam:       "Alcaraz",
		AwayTeam:       "Sinner",
		StartTime:      time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC),
		MarketOdd:      2.76,
		Analyzed:       true,
		WinProbability: 58,
		Confidence:     market.ConfidenceHigh,
		Reasoning:      "Strong hard-court form.",
		ExpectedValue:  60.1,
		Tier:           market.TierSick,
	}
	safe := market.MatchRecord{
		League:         market.LeagueWTA,
		HomeTeam:       "Swiatek",
		AwayTeam:       "Gauff",
		MarketOdd:      1.40,
		Analyzed:       true,
		WinProbability: 72,
		Confidence:     market.ConfidenceMedium,
	}
	return &market.Picks{
		ValueBets:   []market.MatchRecord{bet},
		SafeBets:    []market.MatchRecord{safe},
		BetOfTheDay: &bet,
	}
}

func TestFormatPicks(t *testing.T) {
	msg := FormatPicks(samplePicks())

	for _, want := range []string{
		"Bet of the Day",
		"Alcaraz vs Sinner",
		"Odds:** 2.76",
		"58%",
		"+60.1%",
		"HIGH",
		"Strong hard-court form.",
		"Safe Bets Today",
		"Swiatek",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatPicks_NoBets(t *testing.T) {
	msg := FormatPicks(&market.Picks{})

	if !strings.Contains(msg, "No value betting opportunities found today") {
		t.Errorf("missing no-bets message:\n%s", msg)
	}
	// An empty selection is a successful run, not an outage.
	if strings.Contains(msg, "unavailable") {
		t.Errorf("no-bets message reads like a failure:\n%s", msg)
	}
}

func TestFormatPicks_SafeBetsCapped(t *testing.T) {
	picks := &market.Picks{}
	for i := 0; i < 5; i++ {
		picks.SafeBets = append(picks.SafeBets, market.MatchRecord{
			HomeTeam:       "Favorite",
			AwayTeam:       "Underdog",
			MarketOdd:      1.30,
			Analyzed:       true,
			WinProbability: 75,
		})
	}

	msg := FormatPicks(picks)
	if strings.Contains(msg, "4.") || strings.Contains(msg, "5.") {
		t.Errorf("more than three safe bets rendered:\n%s", msg)
	}
}

func TestDiscord_SendPicks(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding webhook body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL)
	if err := d.SendPicks(context.Background(), samplePicks()); err != nil {
		t.Fatalf("SendPicks: %v", err)
	}
	if !strings.Contains(got["content"], "Alcaraz") {
		t.Errorf("webhook content = %q", got["content"])
	}
}

func TestDiscord_SendPicks_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL)
	if err := d.SendPicks(context.Background(), samplePicks()); err == nil {
		t.Fatal("SendPicks succeeded on 500")
	}
}

func TestDiscord_Disabled(t *testing.T) {
	d := NewDiscord("")
	if d.Enabled() {
		t.Error("empty webhook reported enabled")
	}
	if err := d.SendPicks(context.Background(), samplePicks()); err != nil {
		t.Errorf("disabled notifier returned %v", err)
	}
}

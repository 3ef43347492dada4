package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tenntrend/engine/pkg/market"
)

func testMatch(id string) market.MatchRecord {
	return market.MatchRecord{
		ID:             id,
		League:         market.LeagueATP,
		HomeTeam:       "Alcaraz",
		AwayTeam:       "Sinner",
		StartTime:      time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC),
		MarketOdd:      2.5,
		Analyzed:       true,
		WinProbability: 48,
		ExpectedValue:  20,
	}
}

func TestNewEntry(t *testing.T) {
	selectedAt := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	e := NewEntry(testMatch("m1"), selectedAt)

	if e.Date != "2025-06-01" {
		t.Errorf("Date = %q, want 2025-06-01", e.Date)
	}
	if e.Outcome != "Alcaraz" {
		t.Errorf("Outcome = %q, want the home side", e.Outcome)
	}
	if e.Status != StatusPending {
		t.Errorf("Status = %q, want pending", e.Status)
	}
	if e.ROI != nil {
		t.Errorf("ROI = %v, want nil while pending", e.ROI)
	}
}

func TestDocument_AppendIdempotent(t *testing.T) {
	doc := NewDocument()
	e := NewEntry(testMatch("m1"), time.Now())

	if !doc.AppendBet(e) {
		t.Fatal("first append returned false")
	}
	if doc.AppendBet(e) {
		t.Error("duplicate append returned true")
	}
	if len(doc.Bets) != 1 {
		t.Errorf("len(Bets) = %d, want 1", len(doc.Bets))
	}
	if doc.Stats.TotalBets != 1 || doc.Stats.Pending != 1 {
		t.Errorf("Stats = %+v", doc.Stats)
	}
}

func TestDocument_NewestFirst(t *testing.T) {
	doc := NewDocument()
	doc.AppendBet(NewEntry(testMatch("old"), time.Now()))
	doc.AppendBet(NewEntry(testMatch("new"), time.Now()))

	if doc.Bets[0].ID != "new" || doc.Bets[1].ID != "old" {
		t.Errorf("order = [%s, %s], want newest first", doc.Bets[0].ID, doc.Bets[1].ID)
	}
}

func TestEntry_Settle(t *testing.T) {
	t.Run("pending to win", func(t *testing.T) {
		e := NewEntry(testMatch("m1"), time.Now())
		roi := decimal.NewFromFloat(1.5)
		if !e.Settle(StatusWin, "6-4, 7-5", roi) {
			t.Fatal("Settle returned false")
		}
		if e.Status != StatusWin || e.Result != "6-4, 7-5" {
			t.Errorf("entry = %+v", e)
		}
		if e.ROI == nil || !e.ROI.Equal(roi) {
			t.Errorf("ROI = %v, want 1.5", e.ROI)
		}
	})

	t.Run("settled entries are immutable", func(t *testing.T) {
		e := NewEntry(testMatch("m1"), time.Now())
		e.Settle(StatusWin, "6-4, 7-5", decimal.NewFromFloat(1.5))

		if e.Settle(StatusLoss, "0-6, 0-6", decimal.NewFromInt(-1)) {
			t.Error("re-settling returned true")
		}
		if e.Status != StatusWin {
			t.Errorf("Status = %q, terminal state reverted", e.Status)
		}
	})

	t.Run("pending is not a settlement target", func(t *testing.T) {
		e := NewEntry(testMatch("m1"), time.Now())
		if e.Settle(StatusPending, "", decimal.Zero) {
			t.Error("settling to pending returned true")
		}
	})
}

func TestComputeStats(t *testing.T) {
	entries := []Entry{
		settled("w1", StatusWin, "1.5"),
		settled("w2", StatusWin, "0.4"),
		settled("l1", StatusLoss, "-1"),
		settled("p1", StatusPush, "0"),
		NewEntry(testMatch("pend"), time.Now()),
	}

	stats := ComputeStats(entries)

	if stats.TotalBets != 5 || stats.Wins != 2 || stats.Losses != 1 || stats.Pushes != 1 || stats.Pending != 1 {
		t.Errorf("stats = %+v", stats)
	}
	// 2/(2+1): pushes and pending stay out of the denominator.
	if want := 100.0 * 2 / 3; stats.WinRate < want-1e-9 || stats.WinRate > want+1e-9 {
		t.Errorf("WinRate = %v, want %v", stats.WinRate, want)
	}
	if want := decimal.RequireFromString("0.9"); !stats.TotalROI.Equal(want) {
		t.Errorf("TotalROI = %v, want %v", stats.TotalROI, want)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.WinRate != 0 || !stats.TotalROI.Equal(decimal.Zero) {
		t.Errorf("stats = %+v, want zeroes", stats)
	}
}

func TestDocument_Pending(t *testing.T) {
	doc := NewDocument()
	doc.AppendBet(NewEntry(testMatch("b1"), time.Now()))
	doc.AppendSafeBet(NewEntry(testMatch("s1"), time.Now()))

	pending := doc.Pending()
	if len(pending) != 2 {
		t.Fatalf("len(Pending) = %d, want 2", len(pending))
	}

	// Settling through the returned pointer mutates the document.
	pending[0].Settle(StatusWin, "6-4, 6-4", decimal.NewFromFloat(1.5))
	doc.Refresh()

	if doc.Stats.Wins != 1 {
		t.Errorf("Stats.Wins = %d after in-place settle, want 1", doc.Stats.Wins)
	}
	if got := doc.Pending(); len(got) != 1 {
		t.Errorf("len(Pending) = %d after settle, want 1", len(got))
	}
}

func settled(id string, status Status, roi string) Entry {
	e := NewEntry(testMatch(id), time.Now())
	e.Settle(status, "6-4, 6-4", decimal.RequireFromString(roi))
	return e
}

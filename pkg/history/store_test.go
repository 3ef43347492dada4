package history

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/tenntrend/engine/pkg/market"
)

func TestStore_HistoryRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	// Missing file reads as an empty document, not an error.
	doc, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory on fresh dir: %v", err)
	}
	if len(doc.Bets) != 0 || len(doc.SafeBets) != 0 {
		t.Errorf("fresh document not empty: %+v", doc)
	}

	doc.AppendBet(NewEntry(testMatch("m1"), time.Now()))
	if err := store.SaveHistory(doc); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	loaded, err := store.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(loaded.Bets) != 1 || loaded.Bets[0].ID != "m1" {
		t.Errorf("loaded = %+v", loaded.Bets)
	}
	if loaded.Bets[0].Status != StatusPending {
		t.Errorf("Status = %q after round trip", loaded.Bets[0].Status)
	}
}

func TestStore_PicksRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.LoadPicks(); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("LoadPicks on fresh dir: err = %v, want fs.ErrNotExist", err)
	}

	m := testMatch("m1")
	picks := &market.Picks{
		RunID:       "run-1",
		Timestamp:   time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		ValueBets:   []market.MatchRecord{m},
		BetOfTheDay: &m,
	}
	if err := store.SavePicks(picks); err != nil {
		t.Fatalf("SavePicks: %v", err)
	}

	loaded, err := store.LoadPicks()
	if err != nil {
		t.Fatalf("LoadPicks: %v", err)
	}
	if loaded.RunID != "run-1" || len(loaded.ValueBets) != 1 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestStore_Record(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	best := testMatch("best")
	safe := testMatch("safe")
	picks := &market.Picks{
		ValueBets:   []market.MatchRecord{best, testMatch("other")},
		SafeBets:    []market.MatchRecord{safe},
		BetOfTheDay: &best,
	}

	added, err := store.Record(picks, time.Now())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Only the bet of the day is tracked from the value set; the rest of
	// the value bets are informational.
	if added != 2 {
		t.Errorf("added = %d, want 2 (bet of the day + safe bet)", added)
	}

	// Re-recording the same picks is a no-op.
	added, err = store.Record(picks, time.Now())
	if err != nil {
		t.Fatalf("Record rerun: %v", err)
	}
	if added != 0 {
		t.Errorf("rerun added = %d, want 0", added)
	}

	doc, err := store.LoadHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Bets) != 1 || doc.Bets[0].ID != "best" {
		t.Errorf("Bets = %+v", doc.Bets)
	}
	if len(doc.SafeBets) != 1 || doc.SafeBets[0].ID != "safe" {
		t.Errorf("SafeBets = %+v", doc.SafeBets)
	}
}

// Package history persists past recommendations and their resolved
// outcomes. The store is a single JSON document, read-modify-written
// whole on each pass: concurrent writers are not supported by design
// (one scheduled job owns it).
package history

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tenntrend/engine/pkg/market"
)

// Status is the settlement state of an entry. pending transitions exactly
// once to win, loss, or push; settled entries are immutable.
type Status string

const (
	StatusPending Status = "pending"
	StatusWin     Status = "win"
	StatusLoss    Status = "loss"
	StatusPush    Status = "push"
)

// Settled reports whether the status is terminal.
func (s Status) Settled() bool {
	return s == StatusWin || s == StatusLoss || s == StatusPush
}

// Entry is a persisted recommendation: a snapshot of the match at
// selection time, not a live reference, since upstream spellings drift later.
type Entry struct {
	ID             string            `json:"id"`
	Date           string            `json:"date"` // YYYY-MM-DD, selection date
	MatchTime      time.Time         `json:"matchTime"`
	League         market.League     `json:"league"`
	HomeTeam       string            `json:"homeTeam"`
	AwayTeam       string            `json:"awayTeam"`
	Outcome        string            `json:"outcome"` // side bet on
	Odds           float64           `json:"odds"`
	ExpectedValue  float64           `json:"expectedValue"`
	WinProbability float64           `json:"winProbability"`
	Confidence     market.Confidence `json:"confidence,omitempty"`
	Reasoning      string            `json:"reasoning,omitempty"`

	Status  Status           `json:"status"`
	Result  string           `json:"result,omitempty"` // final score, set on settlement
	ROI     *decimal.Decimal `json:"roi"`              // units on a 1-unit stake, nil while pending
	AddedAt time.Time        `json:"addedAt"`
}

// NewEntry snapshots a selected match as a pending recommendation.
// The bet is always on the home side, the outcome the odds price.
func NewEntry(m market.MatchRecord, selectedAt time.Time) Entry {
	return Entry{
		ID:             m.ID,
		Date:           selectedAt.Format("2006-01-02"),
		MatchTime:      m.StartTime,
		League:         m.League,
		HomeTeam:       m.HomeTeam,
		AwayTeam:       m.AwayTeam,
		Outcome:        m.HomeTeam,
		Odds:           m.MarketOdd,
		ExpectedValue:  m.ExpectedValue,
		WinProbability: m.WinProbability,
		Confidence:     m.Confidence,
		Reasoning:      m.Reasoning,
		Status:         StatusPending,
		AddedAt:        selectedAt,
	}
}

// Stats is the aggregate rollup over one entry list. It is recomputed on
// every reconciliation pass, never stored incrementally.
type Stats struct {
	TotalBets int             `json:"totalBets"`
	Wins      int             `json:"wins"`
	Losses    int             `json:"losses"`
	Pushes    int             `json:"pushes"`
	Pending   int             `json:"pending"`
	WinRate   float64         `json:"winRate"`  // wins/(wins+losses)*100, 0 if unsettled
	TotalROI  decimal.Decimal `json:"totalROI"` // sum of roi over settled entries
}

// ComputeStats derives the rollup from scratch. ROI accumulates in
// decimal so long histories do not drift.
func ComputeStats(entries []Entry) Stats {
	stats := Stats{TotalBets: len(entries), TotalROI: decimal.Zero}

	for _, e := range entries {
		switch e.Status {
		case StatusWin:
			stats.Wins++
		case StatusLoss:
			stats.Losses++
		case StatusPush:
			stats.Pushes++
		default:
			stats.Pending++
		}
		if e.Status.Settled() && e.ROI != nil {
			stats.TotalROI = stats.TotalROI.Add(*e.ROI)
		}
	}

	if settled := stats.Wins + stats.Losses; settled > 0 {
		stats.WinRate = float64(stats.Wins) / float64(settled) * 100
	}

	return stats
}

// Document is the results-history file: value bets and safe bets tracked
// separately, each with its own rollup.
type Document struct {
	Bets         []Entry `json:"bets"`
	SafeBets     []Entry `json:"safeBets"`
	Stats        Stats   `json:"stats"`
	SafeBetStats Stats   `json:"safeBetStats"`
}

// NewDocument returns an empty history document.
func NewDocument() *Document {
	return &Document{
		Bets:         []Entry{},
		SafeBets:     []Entry{},
		Stats:        ComputeStats(nil),
		SafeBetStats: ComputeStats(nil),
	}
}

func appendEntry(entries []Entry, e Entry) ([]Entry, bool) {
	for _, existing := range entries {
		if existing.ID == e.ID {
			return entries, false
		}
	}
	// Newest first, matching the rendered history order.
	return append([]Entry{e}, entries...), true
}

// AppendBet adds a pending value bet. Idempotent on ID: re-adding an
// existing entry is a no-op and returns false.
func (d *Document) AppendBet(e Entry) bool {
	var added bool
	d.Bets, added = appendEntry(d.Bets, e)
	if added {
		d.Stats = ComputeStats(d.Bets)
	}
	return added
}

// AppendSafeBet adds a pending safe bet, idempotent on ID.
func (d *Document) AppendSafeBet(e Entry) bool {
	var added bool
	d.SafeBets, added = appendEntry(d.SafeBets, e)
	if added {
		d.SafeBetStats = ComputeStats(d.SafeBets)
	}
	return added
}

// Refresh recomputes both rollups from the entry lists.
func (d *Document) Refresh() {
	d.Stats = ComputeStats(d.Bets)
	d.SafeBetStats = ComputeStats(d.SafeBets)
}

// Pending returns pointers to every pending entry across both lists, so
// the reconciler can settle them in place.
func (d *Document) Pending() []*Entry {
	var pending []*Entry
	for i := range d.Bets {
		if d.Bets[i].Status == StatusPending {
			pending = append(pending, &d.Bets[i])
		}
	}
	for i := range d.SafeBets {
		if d.SafeBets[i].Status == StatusPending {
			pending = append(pending, &d.SafeBets[i])
		}
	}
	return pending
}

// Settle transitions one pending entry to a terminal status, recording
// the final score and realized ROI. Settling a non-pending entry is a
// no-op: terminal states never revert and are never reprocessed.
func (e *Entry) Settle(status Status, result string, roi decimal.Decimal) bool {
	if e.Status != StatusPending || !status.Settled() {
		return false
	}
	e.Status = status
	e.Result = result
	e.ROI = &roi
	return true
}

// Package settle reconciles pending recommendations against final match
// results. Every write is a single-entry, single-transition mutation
// guarded by current status, so the whole job can be killed and re-run at
// any point without corrupting state.
package settle

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tenntrend/engine/pkg/history"
	"github.com/tenntrend/engine/pkg/names"
)

// Result is one completed contest as reported by a results provider.
// HomeScore/AwayScore count the units that decide the winner: sets in
// tennis, goals in hockey.
type Result struct {
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
	Score     string // display score, e.g. "6-4, 7-5"
}

// Tied reports an even final score. Tennis feeds never produce one;
// hockey feeds can.
func (r *Result) Tied() bool { return r.HomeScore == r.AwayScore }

// ResultsProvider supplies completed matches for a calendar date.
type ResultsProvider interface {
	CompletedMatches(ctx context.Context, date time.Time) ([]Result, error)
}

// Config tunes the reconciler.
type Config struct {
	// Delay between upstream calls, to respect provider rate limits.
	Delay time.Duration
	// DateSkew widens the lookup window around each match date to absorb
	// timezone and late-finish skew.
	DateSkew time.Duration
}

// DefaultConfig returns the production settings: 300ms between calls,
// one day of skew either side.
func DefaultConfig() *Config {
	return &Config{
		Delay:    300 * time.Millisecond,
		DateSkew: 24 * time.Hour,
	}
}

// Report summarizes one reconciliation pass.
type Report struct {
	Checked      int
	Wins         int
	Losses       int
	Pushes       int
	StillPending int
}

// Reconciler settles pending history entries from upstream results.
type Reconciler struct {
	store    *history.Store
	provider ResultsProvider
	config   *Config
}

// NewReconciler creates a reconciler. A nil config uses the defaults.
func NewReconciler(store *history.Store, provider ResultsProvider, config *Config) *Reconciler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reconciler{store: store, provider: provider, config: config}
}

// Run executes one reconciliation pass: fetch completed matches for every
// date a pending entry could have finished on, settle what resolves, and
// persist the updated document with recomputed stats. Entries whose match
// is absent or unresolvable stay pending, never guessed.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	doc, err := r.store.LoadHistory()
	if err != nil {
		return nil, err
	}

	pending := doc.Pending()
	report := &Report{Checked: len(pending)}
	if len(pending) == 0 {
		log.Printf("[Settlement] no pending bets")
		return report, nil
	}
	log.Printf("[Settlement] checking %d pending bet(s)", len(pending))

	completed, err := r.fetchWindow(ctx, pending)
	if err != nil {
		return nil, err
	}
	log.Printf("[Settlement] %d finished matches in window", len(completed))

	for _, entry := range pending {
		result := findResult(entry, completed)
		if result == nil {
			log.Printf("[Settlement] %s vs %s - not yet resolvable", entry.HomeTeam, entry.AwayTeam)
			report.StillPending++
			continue
		}

		status, roi := resolve(entry, result)
		if status == history.StatusPending {
			log.Printf("[Settlement] %s vs %s - winner ambiguous, staying pending", entry.HomeTeam, entry.AwayTeam)
			report.StillPending++
			continue
		}

		if entry.Settle(status, result.Score, roi) {
			switch status {
			case history.StatusWin:
				report.Wins++
			case history.StatusLoss:
				report.Losses++
			case history.StatusPush:
				report.Pushes++
			}
			log.Printf("[Settlement] %s | %s vs %s | score %s | roi %s",
				status, entry.HomeTeam, entry.AwayTeam, result.Score, roi.StringFixed(2))
		}
	}

	doc.Refresh()
	if err := r.store.SaveHistory(doc); err != nil {
		return report, fmt.Errorf("saving history: %w", err)
	}

	log.Printf("[Settlement] done: %d win, %d loss, %d push, %d pending",
		report.Wins, report.Losses, report.Pushes, report.StillPending)
	return report, nil
}

// fetchWindow collects the distinct dates covered by the pending entries
// (each widened by the configured skew) and fetches completed matches for
// each, sequentially with a fixed delay between calls.
func (r *Reconciler) fetchWindow(ctx context.Context, pending []*history.Entry) ([]Result, error) {
	dates := make(map[string]time.Time)
	for _, e := range pending {
		day := e.MatchTime.UTC().Truncate(24 * time.Hour)
		for _, d := range []time.Time{day.Add(-r.config.DateSkew), day, day.Add(r.config.DateSkew)} {
			dates[d.Format("2006-01-02")] = d
		}
	}

	keys := make([]string, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var completed []Result
	for i, k := range keys {
		if i > 0 {
			select {
			case <-time.After(r.config.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		matches, err := r.provider.CompletedMatches(ctx, dates[k])
		if err != nil {
			// One bad date leaves its entries pending; the rest of the
			// window still settles.
			log.Printf("[Settlement] fetch %s failed: %v", k, err)
			continue
		}
		completed = append(completed, matches...)
	}
	return completed, nil
}

// findResult locates the completed match for an entry, trying both
// orientations since upstream home/away assignment is not stable.
func findResult(entry *history.Entry, completed []Result) *Result {
	for i := range completed {
		res := &completed[i]
		if names.MatchPair(entry.HomeTeam, entry.AwayTeam, res.HomeTeam, res.AwayTeam) {
			return res
		}
	}
	return nil
}

// resolve determines the terminal status and ROI for an entry against its
// found result. Ties push; otherwise the entry wins when the side bet on
// matches the winner. Returns StatusPending when the recorded outcome
// matches neither side, which means the result cannot be trusted.
func resolve(entry *history.Entry, result *Result) (history.Status, decimal.Decimal) {
	if result.Tied() {
		return history.StatusPush, decimal.Zero
	}

	var betWon bool
	switch {
	case names.Match(entry.Outcome, result.HomeTeam):
		betWon = result.HomeScore > result.AwayScore
	case names.Match(entry.Outcome, result.AwayTeam):
		betWon = result.AwayScore > result.HomeScore
	default:
		return history.StatusPending, decimal.Zero
	}

	if betWon {
		return history.StatusWin, decimal.NewFromFloat(entry.Odds).Sub(decimal.NewFromInt(1))
	}
	return history.StatusLoss, decimal.NewFromInt(-1)
}

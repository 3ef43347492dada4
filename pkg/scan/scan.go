// Package scan coordinates the daily scan workflow: fetch upcoming
// matches, obtain oracle predictions, compute expected values, select
// the day's bets, and persist and publish the result.
package scan

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tenntrend/engine/pkg/history"
	"github.com/tenntrend/engine/pkg/market"
	"github.com/tenntrend/engine/pkg/metrics"
	"github.com/tenntrend/engine/pkg/oracle"
)

// Stage represents a stage in the scan workflow.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StagePredict Stage = "predict"
	StageAnalyze Stage = "analyze"
	StageSelect  Stage = "select"
	StagePersist Stage = "persist"
	StageNotify  Stage = "notify"
)

// StageResult holds the result of a stage execution.
type StageResult struct {
	Stage     Stage         `json:"stage"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Feed supplies upcoming matches with market odds.
type Feed interface {
	FetchMatches(ctx context.Context) ([]market.MatchRecord, error)
}

// Notifier delivers the day's picks to an external channel.
type Notifier interface {
	Enabled() bool
	SendPicks(ctx context.Context, picks *market.Picks) error
}

// Publisher pushes picks to connected dashboard clients.
type Publisher interface {
	BroadcastPicks(picks interface{})
}

// Pipeline runs the scan workflow end to end.
type Pipeline struct {
	feed     Feed
	adapter  oracle.Adapter
	selector *market.Selector
	store    *history.Store
	notifier Notifier
	pub      Publisher
	metrics  *metrics.EngineMetrics

	onStageComplete func(*StageResult)

	// Run state, valid for the duration of one Run call.
	matches []market.MatchRecord
	picks   *market.Picks
}

// New creates a scan pipeline. notifier, pub and em may be nil.
func New(feed Feed, adapter oracle.Adapter, selector *market.Selector, store *history.Store, notifier Notifier, pub Publisher, em *metrics.EngineMetrics) *Pipeline {
	if selector == nil {
		selector = market.NewSelector(market.DefaultSelectorConfig())
	}
	return &Pipeline{
		feed:     feed,
		adapter:  adapter,
		selector: selector,
		store:    store,
		notifier: notifier,
		pub:      pub,
		metrics:  em,
	}
}

// OnStageComplete sets a callback for stage completions.
func (p *Pipeline) OnStageComplete(fn func(*StageResult)) {
	p.onStageComplete = fn
}

// Run executes one full scan. A total upstream odds failure aborts the
// run; an oracle failure does not. The run continues with every match
// marked unanalyzed so defaults are never mistaken for predictions.
func (p *Pipeline) Run(ctx context.Context) (*market.Picks, error) {
	runID := uuid.NewString()
	start := time.Now()
	log.Printf("[Scan] Run %s starting", runID)

	stages := []Stage{StageFetch, StagePredict, StageAnalyze, StageSelect, StagePersist, StageNotify}
	for _, stage := range stages {
		if err := p.runStage(ctx, stage, runID); err != nil {
			if p.metrics != nil {
				p.metrics.RecordScan("failed", time.Since(start).Seconds())
			}
			return nil, fmt.Errorf("stage %s failed: %w", stage, err)
		}
	}

	if p.metrics != nil {
		p.metrics.RecordScan("ok", time.Since(start).Seconds())
	}
	log.Printf("[Scan] Run %s complete in %v: %d value bets, %d safe bets",
		runID, time.Since(start).Round(time.Millisecond), len(p.picks.ValueBets), len(p.picks.SafeBets))
	return p.picks, nil
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, runID string) error {
	start := time.Now()
	var err error

	switch stage {
	case StageFetch:
		err = p.executeFetch(ctx)
	case StagePredict:
		err = p.executePredict(ctx)
	case StageAnalyze:
		err = p.executeAnalyze()
	case StageSelect:
		err = p.executeSelect(runID)
	case StagePersist:
		err = p.executePersist()
	case StageNotify:
		err = p.executeNotify(ctx)
	default:
		err = fmt.Errorf("unknown stage: %s", stage)
	}

	result := &StageResult{
		Stage:     stage,
		Success:   err == nil,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
	if err != nil {
		result.Error = err.Error()
	}

	if p.metrics != nil {
		p.metrics.RecordStage(string(stage), result.Duration.Seconds())
	}
	if p.onStageComplete != nil {
		p.onStageComplete(result)
	}

	return err
}

func (p *Pipeline) executeFetch(ctx context.Context) error {
	matches, err := p.feed.FetchMatches(ctx)
	if err != nil {
		return fmt.Errorf("fetching matches: %w", err)
	}
	if len(matches) == 0 {
		log.Printf("[Scan] No upcoming matches found")
	}
	if p.metrics != nil {
		byLeague := map[market.League]int{}
		for _, m := range matches {
			byLeague[m.League]++
		}
		for league, n := range byLeague {
			p.metrics.RecordFetch(string(league), n)
		}
	}
	p.matches = matches
	return nil
}

func (p *Pipeline) executePredict(ctx context.Context) error {
	if len(p.matches) == 0 {
		return nil
	}

	start := time.Now()
	preds, err := p.adapter.Predict(ctx, p.matches)
	if err != nil {
		// Matches stay unanalyzed; Apply fills the documented default.
		log.Printf("[Scan] Oracle unavailable, continuing without predictions: %v", err)
		if p.metrics != nil {
			p.metrics.RecordOracleCall("chain", "failed", time.Since(start).Seconds())
		}
		preds = nil
	} else if p.metrics != nil {
		p.metrics.RecordOracleCall("chain", "ok", time.Since(start).Seconds())
		for _, pred := range preds {
			if pred != nil {
				p.metrics.RecordPrediction(string(pred.Confidence), pred.WinProbability)
			}
		}
	}

	p.matches = oracle.Apply(p.matches, preds)
	return nil
}

func (p *Pipeline) executeAnalyze() error {
	analyzed := 0
	for i := range p.matches {
		market.Analyze(&p.matches[i])
		if p.matches[i].Analyzed {
			analyzed++
		}
	}
	log.Printf("[Scan] Analyzed %d/%d matches", analyzed, len(p.matches))
	return nil
}

func (p *Pipeline) executeSelect(runID string) error {
	p.picks = p.selector.Select(p.matches)
	p.picks.RunID = runID
	p.picks.Timestamp = time.Now().UTC()

	if p.metrics != nil {
		for _, vb := range p.picks.ValueBets {
			p.metrics.RecordValueBet(string(vb.Tier), vb.ExpectedValue)
		}
		for range p.picks.SafeBets {
			p.metrics.RecordSafeBet()
		}
	}
	return nil
}

func (p *Pipeline) executePersist() error {
	if p.store == nil {
		return nil
	}
	if err := p.store.SavePicks(p.picks); err != nil {
		return fmt.Errorf("saving picks: %w", err)
	}
	added, err := p.store.Record(p.picks, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording history: %w", err)
	}
	if added > 0 {
		log.Printf("[Scan] Recorded %d new bets to history", added)
	}
	return nil
}

func (p *Pipeline) executeNotify(ctx context.Context) error {
	if p.pub != nil {
		p.pub.BroadcastPicks(p.picks)
	}
	if p.notifier == nil || !p.notifier.Enabled() {
		return nil
	}
	// Notification failures are logged, not fatal: the picks are
	// already persisted.
	if err := p.notifier.SendPicks(ctx, p.picks); err != nil {
		log.Printf("[Scan] Notification failed: %v", err)
	}
	return nil
}

package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tenntrend/engine/pkg/market"
)

// Store persists the two documents: daily picks (fully replaced each run)
// and results history (append for new entries, in-place update for
// settlement). Writes go through a temp file and rename so a killed job
// never leaves a half-written document.
type Store struct {
	mu          sync.Mutex
	picksPath   string
	historyPath string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{
		picksPath:   filepath.Join(dir, "daily-picks.json"),
		historyPath: filepath.Join(dir, "results-history.json"),
	}, nil
}

// LoadHistory reads the results-history document. A missing file yields
// an empty document, not an error.
func (s *Store) LoadHistory() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadHistoryLocked()
}

func (s *Store) loadHistoryLocked() (*Document, error) {
	data, err := os.ReadFile(s.historyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	if doc.Bets == nil {
		doc.Bets = []Entry{}
	}
	if doc.SafeBets == nil {
		doc.SafeBets = []Entry{}
	}
	return &doc, nil
}

// SaveHistory writes the results-history document whole.
func (s *Store) SaveHistory(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(s.historyPath, doc)
}

// Record appends the run's selections as pending history entries: the
// bet of the day into the value-bet list, every safe bet into the
// safe-bet list. Already-present IDs are skipped.
func (s *Store) Record(picks *market.Picks, selectedAt time.Time) (added int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadHistoryLocked()
	if err != nil {
		return 0, err
	}

	if picks.BetOfTheDay != nil {
		if doc.AppendBet(NewEntry(*picks.BetOfTheDay, selectedAt)) {
			added++
		}
	}
	for _, b := range picks.SafeBets {
		if doc.AppendSafeBet(NewEntry(b, selectedAt)) {
			added++
		}
	}

	if err := s.writeLocked(s.historyPath, doc); err != nil {
		return added, err
	}
	return added, nil
}

// SavePicks replaces the daily-picks document.
func (s *Store) SavePicks(picks *market.Picks) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(s.picksPath, picks)
}

// LoadPicks reads the last daily-picks document. Returns fs.ErrNotExist
// when no scan has run yet.
func (s *Store) LoadPicks() (*market.Picks, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.picksPath)
	if err != nil {
		return nil, err
	}
	var picks market.Picks
	if err := json.Unmarshal(data, &picks); err != nil {
		return nil, fmt.Errorf("decoding picks: %w", err)
	}
	return &picks, nil
}

func (s *Store) writeLocked(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

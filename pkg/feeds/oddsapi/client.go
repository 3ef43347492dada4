// Package oddsapi fetches bookmaker odds from The-Odds-API and
// normalizes them into MatchRecords. The pipeline consumes the
// normalized records and never sees this provider's wire format.
package oddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tenntrend/engine/pkg/cache"
	"github.com/tenntrend/engine/pkg/market"
)

const (
	// DefaultBaseURL is The-Odds-API v4 base URL.
	DefaultBaseURL = "https://api.the-odds-api.com/v4"

	defaultRateLimit = 5.0 // requests per second
	defaultBurst     = 3

	// MaxMatchesPerTour caps each tour's batch, earliest start first.
	MaxMatchesPerTour = 15

	// lookahead is how far into the future a match may start and still
	// be included in today's scan.
	lookahead = 24 * time.Hour

	quotaKey = "the-odds-api"
)

// Typed upstream failures callers branch on.
var (
	ErrUnauthorized  = errors.New("odds api: invalid API key")
	ErrQuotaExceeded = errors.New("odds api: quota exceeded")
)

// Client is a The-Odds-API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	quota      cache.QuotaTracker
	store      cache.TTLStore
	cacheTTL   time.Duration
	now        func() time.Time
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithQuotaTracker injects usage-quota bookkeeping.
func WithQuotaTracker(q cache.QuotaTracker) ClientOption {
	return func(c *Client) { c.quota = q }
}

// WithCache injects a TTL response cache.
func WithCache(store cache.TTLStore, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.store = store
		c.cacheTTL = ttl
	}
}

// NewClient creates a new client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sport is one sport/tournament key as listed by the API.
type Sport struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// event is the wire shape of one game with bookmaker odds.
type event struct {
	ID           string    `json:"id"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Bookmakers   []struct {
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string  `json:"name"`
				Price float64 `json:"price"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// Tours groups active tennis tournaments by tour.
type Tours struct {
	ATP []Sport
	WTA []Sport
}

// ListTennisTournaments fetches the active tennis tournament keys,
// split by tour.
func (c *Client) ListTennisTournaments(ctx context.Context) (*Tours, error) {
	var sports []Sport
	if err := c.get(ctx, "/sports/", nil, &sports); err != nil {
		return nil, err
	}

	tours := &Tours{}
	for _, s := range sports {
		if !s.Active || !containsFold(s.Key, "tennis") {
			continue
		}
		switch {
		case containsFold(s.Key, "atp") || containsFold(s.Title, "ATP"):
			tours.ATP = append(tours.ATP, s)
		case containsFold(s.Key, "wta") || containsFold(s.Title, "WTA"):
			tours.WTA = append(tours.WTA, s)
		}
	}
	return tours, nil
}

// FetchMatches fetches h2h odds for every active tournament, fanning out
// per tournament, and returns normalized records: the best (highest) home
// odds across bookmakers, next-24h matches only, capped per tour.
func (c *Client) FetchMatches(ctx context.Context) ([]market.MatchRecord, error) {
	tours, err := c.ListTennisTournaments(ctx)
	if err != nil {
		return nil, err
	}

	atp, err := c.fetchTour(ctx, tours.ATP, market.LeagueATP)
	if err != nil {
		return nil, err
	}
	wta, err := c.fetchTour(ctx, tours.WTA, market.LeagueWTA)
	if err != nil {
		return nil, err
	}

	log.Printf("[Odds] ATP: %d matches, WTA: %d matches", len(atp), len(wta))
	return append(atp, wta...), nil
}

func (c *Client) fetchTour(ctx context.Context, sports []Sport, league market.League) ([]market.MatchRecord, error) {
	if len(sports) == 0 {
		log.Printf("[Odds] no active %s tournaments available", league)
		return nil, nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		events  []event
		lastErr error
	)
	for _, s := range sports {
		wg.Add(1)
		go func(sport Sport) {
			defer wg.Done()
			evs, err := c.fetchOdds(ctx, sport.Key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One tournament failing does not abort the tour.
				log.Printf("[Odds] %s: %v", sport.Key, err)
				lastErr = err
				return
			}
			events = append(events, evs...)
		}(s)
	}
	wg.Wait()

	if len(events) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return c.normalize(events, league), nil
}

func (c *Client) fetchOdds(ctx context.Context, sportKey string) ([]event, error) {
	params := url.Values{}
	params.Set("regions", "us,eu")
	params.Set("markets", "h2h")
	params.Set("oddsFormat", "decimal")

	var events []event
	if err := c.get(ctx, "/sports/"+sportKey+"/odds", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// normalize filters to the lookahead window, caps the batch, and reduces
// each event to a MatchRecord with the best home odds. Events without a
// usable h2h home price are dropped, as are records that fail the data
// invariants.
func (c *Client) normalize(events []event, league market.League) []market.MatchRecord {
	now := c.now()

	var upcoming []event
	for _, e := range events {
		d := e.CommenceTime.Sub(now)
		if d >= 0 && d <= lookahead {
			upcoming = append(upcoming, e)
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].CommenceTime.Before(upcoming[j].CommenceTime)
	})
	if len(upcoming) > MaxMatchesPerTour {
		upcoming = upcoming[:MaxMatchesPerTour]
	}

	var records []market.MatchRecord
	for _, e := range upcoming {
		best := 0.0
		for _, bm := range e.Bookmakers {
			for _, mkt := range bm.Markets {
				if mkt.Key != "h2h" {
					continue
				}
				for _, o := range mkt.Outcomes {
					if o.Name == e.HomeTeam && o.Price > best {
						best = o.Price
					}
				}
			}
		}
		if best == 0 {
			continue
		}

		rec := market.MatchRecord{
			ID:         e.ID,
			League:     league,
			HomeTeam:   e.HomeTeam,
			AwayTeam:   e.AwayTeam,
			StartTime:  e.CommenceTime,
			MarketOdd:  best,
			MarketProb: market.ImpliedProbability(best),
		}
		if !rec.Valid() {
			log.Printf("[Odds] dropping %s vs %s: invalid record (odd %.2f)", e.HomeTeam, e.AwayTeam, best)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.store != nil {
		key := path + "?" + params.Encode()
		if data, err := c.store.Get(ctx, key); err == nil {
			return json.Unmarshal(data, out)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.quota != nil {
		if remaining, err := c.quota.Remaining(ctx, quotaKey); err == nil && remaining <= 0 {
			return ErrQuotaExceeded
		}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if c.quota != nil {
		if _, err := c.quota.Increment(ctx, quotaKey); err != nil {
			log.Printf("[Odds] quota tracking failed: %v", err)
		}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrQuotaExceeded
	default:
		return fmt.Errorf("odds api returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if c.store != nil {
		key := func() string {
			params.Del("apiKey")
			return path + "?" + params.Encode()
		}()
		if err := c.store.Set(ctx, key, data, c.cacheTTL); err != nil {
			log.Printf("[Odds] cache write failed: %v", err)
		}
	}
	return json.Unmarshal(data, out)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

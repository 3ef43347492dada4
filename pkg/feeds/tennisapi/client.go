// Package tennisapi fetches completed tennis matches from the RapidAPI
// tennis provider and adapts them into settlement results.
package tennisapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tenntrend/engine/pkg/settle"
)

const (
	// DefaultHost is the RapidAPI tennis host.
	DefaultHost = "tennis-api-atp-wta-itf.p.rapidapi.com"

	defaultRateLimit = 2.0
	defaultBurst     = 1
)

// Client implements settle.ResultsProvider against the RapidAPI tennis
// feed.
type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHost sets a custom API host.
func WithHost(host string) ClientOption {
	return func(c *Client) { c.host = host }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// NewClient creates a results client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		host:   DefaultHost,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiEvent is the wire shape of one match. Set scores arrive as period1
// through period5 on each side.
type apiEvent struct {
	HomeTeam struct {
		Name string `json:"name"`
	} `json:"homeTeam"`
	AwayTeam struct {
		Name string `json:"name"`
	} `json:"awayTeam"`
	Status struct {
		Type string `json:"type"`
	} `json:"status"`
	HomeScore map[string]json.Number `json:"homeScore"`
	AwayScore map[string]json.Number `json:"awayScore"`
}

// CompletedMatches implements settle.ResultsProvider. The feed takes
// dates in DD/MM/YYYY path format; a 404 means no matches that day.
func (c *Client) CompletedMatches(ctx context.Context, date time.Time) ([]settle.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://%s/tennis/matches/%s", c.host, date.Format("02/01/2006"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching matches: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tennis api returned %d", resp.StatusCode)
	}

	var payload struct {
		Events []apiEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	var results []settle.Result
	for _, e := range payload.Events {
		if e.Status.Type != "finished" {
			continue
		}
		r, ok := toResult(e)
		if !ok {
			// No parseable set scores: the reconciler must not guess.
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// toResult counts set periods to determine the winner and builds a
// "6-4, 7-5" display score.
func toResult(e apiEvent) (settle.Result, bool) {
	var (
		homeSets, awaySets int
		sets               []string
	)
	for i := 1; i <= 5; i++ {
		h, hok := e.HomeScore[fmt.Sprintf("period%d", i)]
		a, aok := e.AwayScore[fmt.Sprintf("period%d", i)]
		if !hok || !aok {
			break
		}
		hg, herr := h.Int64()
		ag, aerr := a.Int64()
		if herr != nil || aerr != nil {
			break
		}

		sets = append(sets, fmt.Sprintf("%d-%d", hg, ag))
		if hg > ag {
			homeSets++
		} else if ag > hg {
			awaySets++
		}
	}

	if len(sets) == 0 {
		return settle.Result{}, false
	}

	return settle.Result{
		HomeTeam:  e.HomeTeam.Name,
		AwayTeam:  e.AwayTeam.Name,
		HomeScore: homeSets,
		AwayScore: awaySets,
		Score:     strings.Join(sets, ", "),
	}, true
}

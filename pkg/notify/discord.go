// Package notify renders the typed picks payload for delivery channels.
// It consumes data only; the selector knows nothing about presentation.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tenntrend/engine/pkg/market"
)

// Discord posts daily picks to a Discord webhook.
type Discord struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscord creates a notifier. An empty webhook URL disables it.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether a webhook is configured.
func (d *Discord) Enabled() bool { return d.webhookURL != "" }

// SendPicks posts the daily picks message. An empty selection sends the
// distinct "no bets today" message (a successful run with no qualifying
// bets, not a failure).
func (d *Discord) SendPicks(ctx context.Context, picks *market.Picks) error {
	if !d.Enabled() {
		return nil
	}
	return d.post(ctx, FormatPicks(picks))
}

func (d *Discord) post(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

const tierLegend = "💪 Strong (3-6%) | ⭐ Elite (6-10%) | 🔥 Sick (10%+)"

// FormatPicks renders the Discord message for one scan run.
func FormatPicks(picks *market.Picks) string {
	if picks.BetOfTheDay == nil && len(picks.SafeBets) == 0 {
		return "🎾 **TennTrend Daily Update**\n\n" +
			"📊 No value betting opportunities found today.\n" +
			"🎯 All available matches were analyzed but none met the minimum EV threshold.\n\n" +
			"✨ Quality over quantity - check back tomorrow for new picks!\n\n" +
			tierLegend
	}

	var b strings.Builder

	if bet := picks.BetOfTheDay; bet != nil {
		fmt.Fprintf(&b, "🏆 **TennTrend - Bet of the Day**\n\n")
		fmt.Fprintf(&b, "**%s vs %s** (%s)\n", bet.HomeTeam, bet.AwayTeam, bet.League)
		fmt.Fprintf(&b, "🕐 Start: %s\n\n", bet.StartTime.Format("Jan 2, 15:04 MST"))
		fmt.Fprintf(&b, "%s\n", tierBadge(bet.Tier))
		fmt.Fprintf(&b, "🎯 **Pick:** %s to Win\n", bet.HomeTeam)
		fmt.Fprintf(&b, "💰 **Odds:** %.2f\n", bet.MarketOdd)
		fmt.Fprintf(&b, "🤖 **AI Win Probability:** %.0f%%\n", bet.WinProbability)
		fmt.Fprintf(&b, "📈 **Expected Value:** +%.1f%%\n", bet.ExpectedValue)
		fmt.Fprintf(&b, "🎲 **Confidence:** %s\n\n", strings.ToUpper(string(bet.Confidence)))
		if bet.Reasoning != "" {
			fmt.Fprintf(&b, "💡 **Analysis:**\n%s\n", bet.Reasoning)
		}
		if extra := len(picks.ValueBets) - 1; extra > 0 {
			fmt.Fprintf(&b, "\n📊 **%d More Value Bet%s Available**\n", extra, plural(extra))
		}
	}

	if len(picks.SafeBets) > 0 {
		if picks.BetOfTheDay != nil {
			b.WriteString("\n---\n\n")
		}
		b.WriteString("🛡️ **Safe Bets Today** (High Probability Favorites)\n\n")
		for i, bet := range picks.SafeBets {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "**%d. %s** vs %s\n", i+1, bet.HomeTeam, bet.AwayTeam)
			fmt.Fprintf(&b, "   💰 Odds: %.2f | 🤖 AI: %.0f%% | 🎲 %s\n\n",
				bet.MarketOdd, bet.WinProbability, strings.ToUpper(string(bet.Confidence)))
		}
	}

	fmt.Fprintf(&b, "\n✨ Professional-grade analysis | EV Tiers: %s", tierLegend)
	return b.String()
}

func tierBadge(t market.Tier) string {
	switch t {
	case market.TierSick:
		return "🔥 **Sick Edge**"
	case market.TierElite:
		return "⭐ **Elite Edge**"
	case market.TierStrong:
		return "💪 **Strong Edge**"
	default:
		return ""
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// tenntrend-scand runs one daily scan: fetch upcoming matches, obtain
// oracle predictions, select the day's bets, persist and notify.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tenntrend/engine/pkg/cache"
	"github.com/tenntrend/engine/pkg/feeds/oddsapi"
	"github.com/tenntrend/engine/pkg/history"
	"github.com/tenntrend/engine/pkg/market"
	"github.com/tenntrend/engine/pkg/notify"
	"github.com/tenntrend/engine/pkg/oracle"
	"github.com/tenntrend/engine/pkg/scan"
)

var (
	dataDir   = flag.String("data", "data", "Directory for picks and history files")
	timeout   = flag.Duration("timeout", 5*time.Minute, "Overall run timeout")
	redisAddr = flag.String("redis", "", "Redis address for odds caching (or REDIS_ADDR env)")
	verbose   = flag.Bool("verbose", false, "Verbose stage logging")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Loading .env: %v", err)
	}

	oddsKey := os.Getenv("ODDS_API_KEY")
	if oddsKey == "" {
		log.Fatal("ODDS_API_KEY is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := history.NewStore(*dataDir)
	if err != nil {
		log.Fatalf("Opening data store: %v", err)
	}

	feed := newFeed(ctx, oddsKey)
	adapter := newOracle()
	notifier := notify.NewDiscord(os.Getenv("DISCORD_WEBHOOK_URL"))
	selector := market.NewSelector(market.DefaultSelectorConfig())

	pipeline := scan.New(feed, adapter, selector, store, notifier, nil, nil)
	pipeline.OnStageComplete(func(result *scan.StageResult) {
		if *verbose || !result.Success {
			log.Printf("[%s] %s (%.2fms)", result.Stage, statusStr(result.Success), float64(result.Duration.Microseconds())/1000)
			if result.Error != "" {
				log.Printf("  Error: %s", result.Error)
			}
		}
	})

	picks, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	if picks.BetOfTheDay != nil {
		bet := picks.BetOfTheDay
		log.Printf("Bet of the day: %s vs %s @ %.2f (EV +%.1f%%, %s)",
			bet.HomeTeam, bet.AwayTeam, bet.MarketOdd, bet.ExpectedValue, bet.Tier)
	} else {
		log.Println("No qualifying bets today")
	}
}

func newFeed(ctx context.Context, apiKey string) *oddsapi.Client {
	opts := []oddsapi.ClientOption{}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		rdb, err := cache.NewRedis(ctx, addr, "tenntrend", 450, 30*24*time.Hour)
		if err != nil {
			log.Printf("Redis unavailable, using in-memory cache: %v", err)
		} else {
			opts = append(opts,
				oddsapi.WithCache(rdb, time.Hour),
				oddsapi.WithQuotaTracker(rdb),
			)
			return oddsapi.NewClient(apiKey, opts...)
		}
	}

	mem := cache.NewMemory(450, 30*24*time.Hour)
	opts = append(opts,
		oddsapi.WithCache(mem, time.Hour),
		oddsapi.WithQuotaTracker(mem),
	)
	return oddsapi.NewClient(apiKey, opts...)
}

func newOracle() oracle.Adapter {
	var adapters []oracle.Adapter

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config := oracle.DefaultGeminiConfig
		config.APIKey = key
		adapters = append(adapters, oracle.NewLLM(oracle.NewClient(config)))
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		config := oracle.DefaultGroqConfig
		config.APIKey = key
		adapters = append(adapters, oracle.NewLLM(oracle.NewClient(config)))
	}
	if len(adapters) == 0 {
		log.Println("No oracle API keys set; matches will not be analyzed")
	}

	return oracle.NewChain(adapters...)
}

func statusStr(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAILED"
}

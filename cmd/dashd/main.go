// tenntrend-dashd is the dashboard daemon. It serves the picks and
// history API, streams engine events over WebSocket, and optionally
// runs scans and settlement on a schedule.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tenntrend/engine/pkg/cache"
	"github.com/tenntrend/engine/pkg/feeds/oddsapi"
	"github.com/tenntrend/engine/pkg/feeds/tennisapi"
	"github.com/tenntrend/engine/pkg/history"
	"github.com/tenntrend/engine/pkg/market"
	"github.com/tenntrend/engine/pkg/metrics"
	"github.com/tenntrend/engine/pkg/notify"
	"github.com/tenntrend/engine/pkg/oracle"
	"github.com/tenntrend/engine/pkg/scan"
	"github.com/tenntrend/engine/pkg/server"
	"github.com/tenntrend/engine/pkg/settle"
	"github.com/tenntrend/engine/pkg/streaming"
)

var (
	httpAddr       = flag.String("http", ":8080", "HTTP server address")
	dataDir        = flag.String("data", "data", "Directory for picks and history files")
	corsOrigins    = flag.String("cors", "*", "Comma-separated allowed CORS origins")
	scanInterval   = flag.Duration("scan-every", 0, "Run a scan on this interval (0 disables)")
	settleInterval = flag.Duration("settle-every", 0, "Run settlement on this interval (0 disables)")
	redisAddr      = flag.String("redis", "", "Redis address for odds caching (or REDIS_ADDR env)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Loading .env: %v", err)
	}
	log.Println("Starting TennTrend dashboard daemon")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	store, err := history.NewStore(*dataDir)
	if err != nil {
		log.Fatalf("Opening data store: %v", err)
	}

	em := metrics.NewEngineMetrics()
	hub := streaming.NewHub()
	go hub.Run()

	srv := server.New(server.Config{
		Addr:        *httpAddr,
		CORSOrigins: strings.Split(*corsOrigins, ","),
	}, store, hub, em)

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatalf("HTTP server: %v", err)
		}
	}()

	if *scanInterval > 0 {
		go scanLoop(ctx, store, hub, em)
	}
	if *settleInterval > 0 {
		go settleLoop(ctx, store, hub, em)
	}

	log.Printf("Dashboard running on %s", *httpAddr)
	log.Printf("WebSocket streaming available at ws://%s/ws", *httpAddr)

	<-sigCh
	log.Println("Shutting down...")
	cancel()
}

func scanLoop(ctx context.Context, store *history.Store, hub *streaming.Hub, em *metrics.EngineMetrics) {
	oddsKey := os.Getenv("ODDS_API_KEY")
	if oddsKey == "" {
		log.Println("ODDS_API_KEY not set; scheduled scans disabled")
		return
	}

	feed := newFeed(ctx, oddsKey)
	notifier := notify.NewDiscord(os.Getenv("DISCORD_WEBHOOK_URL"))
	selector := market.NewSelector(market.DefaultSelectorConfig())
	pipeline := scan.New(feed, newOracle(), selector, store, notifier, hub, em)

	ticker := time.NewTicker(*scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := pipeline.Run(ctx); err != nil {
				log.Printf("[Scan] Scheduled run failed: %v", err)
				hub.BroadcastError(err, "scan")
			}
			em.UpdateClients(hub.ClientCount())
		}
	}
}

func settleLoop(ctx context.Context, store *history.Store, hub *streaming.Hub, em *metrics.EngineMetrics) {
	apiKey := os.Getenv("RAPIDAPI_KEY")
	if apiKey == "" {
		log.Println("RAPIDAPI_KEY not set; scheduled settlement disabled")
		return
	}

	reconciler := settle.NewReconciler(store, tennisapi.NewClient(apiKey), settle.DefaultConfig())

	ticker := time.NewTicker(*settleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := reconciler.Run(ctx)
			if err != nil {
				log.Printf("[Settlement] Scheduled run failed: %v", err)
				hub.BroadcastError(err, "settlement")
				continue
			}
			em.UpdatePending(report.StillPending)
			hub.BroadcastSettlement(report)

			if doc, err := store.LoadHistory(); err == nil {
				hub.BroadcastStats(map[string]interface{}{
					"bets":     doc.Stats,
					"safeBets": doc.SafeBetStats,
				})
			}
		}
	}
}

func newFeed(ctx context.Context, apiKey string) *oddsapi.Client {
	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		rdb, err := cache.NewRedis(ctx, addr, "tenntrend", 450, 30*24*time.Hour)
		if err != nil {
			log.Printf("Redis unavailable, using in-memory cache: %v", err)
		} else {
			return oddsapi.NewClient(apiKey,
				oddsapi.WithCache(rdb, time.Hour),
				oddsapi.WithQuotaTracker(rdb),
			)
		}
	}

	mem := cache.NewMemory(450, 30*24*time.Hour)
	return oddsapi.NewClient(apiKey,
		oddsapi.WithCache(mem, time.Hour),
		oddsapi.WithQuotaTracker(mem),
	)
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

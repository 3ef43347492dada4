// tenntrend-settled settles pending bets against completed match
// results and updates the running performance stats.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tenntrend/engine/pkg/feeds/tennisapi"
	"github.com/tenntrend/engine/pkg/history"
	"github.com/tenntrend/engine/pkg/settle"
)

var (
	dataDir = flag.String("data", "data", "Directory for picks and history files")
	timeout = flag.Duration("timeout", 5*time.Minute, "Overall run timeout")
	delay   = flag.Duration("delay", 300*time.Millisecond, "Pause between results requests")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Loading .env: %v", err)
	}

	apiKey := os.Getenv("RAPIDAPI_KEY")
	if apiKey == "" {
		log.Fatal("RAPIDAPI_KEY is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := history.NewStore(*dataDir)
	if err != nil {
		log.Fatalf("Opening data store: %v", err)
	}

	provider := tennisapi.NewClient(apiKey)

	config := settle.DefaultConfig()
	config.Delay = *delay

	reconciler := settle.NewReconciler(store, provider, config)
	report, err := reconciler.Run(ctx)
	if err != nil {
		log.Fatalf("Settlement failed: %v", err)
	}

	log.Printf("Settlement complete: %d checked, %d wins, %d losses, %d pushes, %d still pending",
		report.Checked, report.Wins, report.Losses, report.Pushes, report.StillPending)
}

// Command baseindex ingests Base L2 blocks into SQLite and reports
// aggregate stats over the indexed window.
//
// Usage:
//
//	baseindex ingest          Run the ingestion loop until interrupted.
//	baseindex stats           Print stats for the trailing block window.
//
// Configuration comes from the environment (or a .env file in the working
// directory): RPC_URL, DB_PATH, POLL_INTERVAL_MS, SAFETY_BUFFER_BLOCKS,
// REORG_REWIND_DEPTH, STATS_WINDOW_BLOCKS, CONCURRENCY_LIMIT, LOG_LEVEL.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/baseindex/baseindex/config"
	"github.com/baseindex/baseindex/dex"
	"github.com/baseindex/baseindex/enrich"
	"github.com/baseindex/baseindex/fetch"
	"github.com/baseindex/baseindex/ingest"
	"github.com/baseindex/baseindex/log"
	"github.com/baseindex/baseindex/stats"
	"github.com/baseindex/baseindex/store"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0"
var version = "v0.1.0-dev"

func main() {
	os.Exit(run(os.Args))
}

// run is the actual entry point, returning an exit code so it can be
// tested in isolation.
func run(args []string) int {
	if err := newApp().Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "baseindex: %v\n", err)
		return 1
	}
	return 0
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "baseindex",
		Usage:   "Base L2 block ingester and stats reporter",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "run the ingestion loop until interrupted",
				Action: runIngest,
			},
			{
				Name:  "stats",
				Usage: "print stats for the trailing block window",
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:  "window",
						Usage: "block window size (0 uses STATS_WINDOW_BLOCKS)",
					},
				},
				Action: runStats,
			},
		},
	}
}

func runIngest(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.SeedLabels(ctx, store.SeedLabelSet); err != nil {
		return err
	}

	client, err := fetch.Dial(ctx, cfg.RPCURL, cfg.ConcurrencyLimit, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	resolver := dex.NewResolver(st, client, logger)
	enricher := enrich.New(resolver, logger)
	health := ingest.NewHealth()
	poller := ingest.New(client, enricher, st, health, &cfg, logger)

	logger.Info("baseindex starting", "version", version,
		"db", cfg.DBPath, "rpc", cfg.RPCURL)

	err = poller.Run(ctx)

	// Let in-flight factory probes land in the durable cache before the
	// store closes.
	resolver.Wait()
	return err
}

func runStats(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	window := cfg.StatsWindow
	if w := c.Uint64("window"); w > 0 {
		window = w
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ws, err := st.Window(c.Context, window)
	if errors.Is(err, store.ErrNoCheckpoint) {
		fmt.Fprintln(os.Stdout, "no blocks indexed yet")
		return nil
	}
	if err != nil {
		return err
	}
	return stats.Render(os.Stdout, ws)
}

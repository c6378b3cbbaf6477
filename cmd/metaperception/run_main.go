package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quantmesh/metaperception/internal/config"
	"github.com/quantmesh/metaperception/internal/datafeed"
	httpiface "github.com/quantmesh/metaperception/internal/interfaces/http"
	"github.com/quantmesh/metaperception/internal/metrics"
	"github.com/quantmesh/metaperception/internal/perception"
	"github.com/quantmesh/metaperception/internal/persistence"
	"github.com/quantmesh/metaperception/internal/runner"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the perception loop against a live data feed",
		Long:  "Connects the websocket feed, executes perception cycles on the configured interval, persists artifacts, and serves the read-only HTTP surface.",
		RunE:  runLoop,
	}
	addRunFlags(cmd.Flags())
	return cmd
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.String("feed-url", "ws://127.0.0.1:9443/stream", "Websocket feed URL")
	fs.Duration("interval", 15*time.Second, "Cycle interval")
	fs.String("artifacts-dir", "artifacts/perception", "Base directory for file artifacts")
	fs.String("redis-addr", "", "Redis address for the hot store (empty disables)")
	fs.String("postgres-dsn", "", "Postgres DSN for the archive store (empty disables)")
	fs.Int("http-port", 8087, "Read-only HTTP port")
	fs.Float64("feed-rate", 200, "Maximum feed ticks per second")
}

func runLoop(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	feedURL, _ := cmd.Flags().GetString("feed-url")
	interval, _ := cmd.Flags().GetDuration("interval")
	artifactsDir, _ := cmd.Flags().GetString("artifacts-dir")
	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	postgresDSN, _ := cmd.Flags().GetString("postgres-dsn")
	httpPort, _ := cmd.Flags().GetInt("http-port")
	feedRate, _ := cmd.Flags().GetFloat64("feed-rate")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := buildStore(ctx, artifactsDir, redisAddr, postgresDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	feed := datafeed.NewFeed(feedURL, feedRate, 0)
	if err := feed.Connect(ctx); err != nil {
		return fmt.Errorf("connect feed: %w", err)
	}
	defer feed.Close()

	reg := metrics.NewRegistry()
	cache := httpiface.NewStateCache()

	serverCfg := httpiface.DefaultServerConfig()
	serverCfg.Port = httpPort
	server := httpiface.NewServer(serverCfg, cache, reg)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("http server exited")
			cancel()
		}
	}()
	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("feed reader exited")
			cancel()
		}
	}()

	engine := perception.NewEngine(cfg)
	r := runner.New(engine, feed, store, reg, cache, interval)

	err = r.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if sErr := server.Shutdown(shutdownCtx); sErr != nil {
		log.Warn().Err(sErr).Msg("http shutdown failed")
	}

	if err == context.Canceled {
		return nil
	}
	return err
}

// buildStore assembles the tiered persistence: file artifacts always, redis
// hot tier and postgres archive when configured
func buildStore(ctx context.Context, artifactsDir, redisAddr, postgresDSN string) (persistence.Store, error) {
	var hot persistence.Store
	if redisAddr != "" {
		rs, err := persistence.NewRedisStoreFromAddr(ctx, redisAddr, 24*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		hot = rs
	}

	var archive persistence.Store
	if postgresDSN != "" {
		ps, err := persistence.NewPostgresStore(ctx, postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		archive = ps
	}

	return persistence.NewTiered(persistence.NewFileStore(artifactsDir), hot, archive), nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path, _ = cmd.InheritedFlags().GetString("config")
	}
	if path == "" {
		return config.Defaults(), nil
	}
	return config.Load(path)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"constituencies/internal/scraper"
	"constituencies/internal/server"
	"constituencies/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	listenAddr string
	noWarm     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the constituencies JSON API",
	Long: `Serves /api/provinces, /api/constituencies, /api/constituencies/{province}
and /api/constituency/{name} from snapshots of the National Assembly site.

Snapshots are cached in the configured store (memory, sqlite or redis) and
re-scraped once older than server.cache_ttl. When a re-scrape fails the old
snapshot keeps being served.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the National Assembly site into the configured store",
	Args:  cobra.NoArgs,
	RunE:  runScrape,
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (default: server.listen from config)")
	serveCmd.Flags().BoolVar(&noWarm, "no-warm", false, "Do not scrape at startup")
}

func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, store.Options{
		Backend:       cfg.Store.Backend,
		SQLitePath:    cfg.Store.SQLitePath,
		RedisAddr:     cfg.Store.RedisAddr,
		RedisPassword: cfg.Store.RedisPassword,
		RedisDB:       cfg.Store.RedisDB,
		RedisKey:      cfg.Store.RedisKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	return st, nil
}

func newLoader(st store.Store, metrics *server.Metrics) *server.Loader {
	sc := scraper.New(cfg.Server.SourceURL, nil, cfg.GetScrapeTimeout())
	return server.NewLoader(st, sc, cfg.GetCacheTTL(), metrics)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	addr := listenAddr
	if addr == "" {
		addr = cfg.Server.Listen
	}

	metrics := server.NewMetrics()
	srv := server.New(newLoader(st, metrics), logger, metrics)

	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("store", cfg.Store.Backend),
		zap.String("source", cfg.Server.SourceURL),
		zap.Duration("cache_ttl", cfg.GetCacheTTL()))

	if err := srv.Run(ctx, addr, !noWarm); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := newLoader(st, nil).Refresh(ctx)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d provinces, %d constituencies (%s)\n",
		len(snap.Provinces), len(snap.All()), cfg.Store.Backend)
	return nil
}

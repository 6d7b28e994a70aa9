// Package main wires together the journal crawler binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/litmetrics/journal-crawler/internal/api"
	gcsarchive "github.com/litmetrics/journal-crawler/internal/archive/gcs"
	localarchive "github.com/litmetrics/journal-crawler/internal/archive/local"
	"github.com/litmetrics/journal-crawler/internal/assemble"
	"github.com/litmetrics/journal-crawler/internal/catalog"
	"github.com/litmetrics/journal-crawler/internal/clock/system"
	"github.com/litmetrics/journal-crawler/internal/config"
	"github.com/litmetrics/journal-crawler/internal/crawl"
	"github.com/litmetrics/journal-crawler/internal/fetcher/archiving"
	collyfetcher "github.com/litmetrics/journal-crawler/internal/fetcher/colly"
	headlessfetcher "github.com/litmetrics/journal-crawler/internal/fetcher/headless"
	"github.com/litmetrics/journal-crawler/internal/fetcher/resilient"
	"github.com/litmetrics/journal-crawler/internal/hash/sha256"
	"github.com/litmetrics/journal-crawler/internal/id/uuid"
	"github.com/litmetrics/journal-crawler/internal/journal"
	"github.com/litmetrics/journal-crawler/internal/keyring"
	"github.com/litmetrics/journal-crawler/internal/logging"
	"github.com/litmetrics/journal-crawler/internal/metrics"
	pubsubpublisher "github.com/litmetrics/journal-crawler/internal/publisher/pubsub"
	"github.com/litmetrics/journal-crawler/internal/store/postgres"
	"github.com/litmetrics/journal-crawler/internal/store/sqlite"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	if err := run(ctx, cfg, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("crawl interrupted, shutting down")
			return
		}
		logger.Error("crawler exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	clock := system.New()
	idGen := uuid.New()

	runID, err := idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	logger.Info("starting crawl", zap.String("run_id", runID))

	fetcher, cleanup, err := buildFetcher(ctx, cfg, runID, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("close store", zap.Error(closeErr))
		}
	}()
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	publisher, pubCleanup, err := buildPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer pubCleanup()

	if cfg.Server.Enabled {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.NewServer(store, logger.Named("api")).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("http server failed", zap.Error(serveErr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	assembler := assemble.New(fetcher, clock, assemble.Config{
		InsightsURLTemplate: cfg.Crawl.InsightsURLTemplate,
	}, logger.Named("assemble"))

	searcher := catalog.New(cfg.Catalog.Endpoint, cfg.FetchTimeout(), logger.Named("catalog"))

	runner := crawl.New(searcher, assembler, store, publisher, clock, crawl.Config{
		Query:     cfg.Crawl.Query,
		StartPage: cfg.Crawl.StartPage,
		EndPage:   cfg.Crawl.EndPage,
		Topic:     cfg.PubSub.TopicName,
		RunID:     runID,
	}, logger.Named("crawl"))

	counters, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("run complete",
		zap.Int("processed", counters.Processed),
		zap.Int("inserted", counters.Inserted),
		zap.Int("skipped", counters.Skipped),
		zap.Int("failed", counters.Failed),
	)
	return nil
}

// buildFetcher assembles the fetch stack: a base client (proxy GET via colly,
// or local headless rendering when no proxy is configured), the retry and key
// rotation layer, and optionally the raw page archiver.
func buildFetcher(ctx context.Context, cfg config.Config, runID string, logger *zap.Logger) (journal.Fetcher, func(), error) {
	cleanup := func() {}

	var inner journal.Fetcher
	if cfg.Proxy.Endpoint != "" {
		inner = collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Crawl.UserAgent,
			Timeout:   cfg.FetchTimeout(),
		})
	} else {
		headless := headlessfetcher.New(headlessfetcher.Config{
			UserAgent:         cfg.Crawl.UserAgent,
			NavigationTimeout: cfg.FetchTimeout(),
		})
		cleanup = headless.Close
		inner = headless
	}

	ring, err := keyring.New(cfg.Proxy.Keys())
	if err != nil && cfg.Proxy.Endpoint != "" {
		return nil, nil, fmt.Errorf("build key ring: %w", err)
	}
	if ring == nil {
		// No proxy keys in local rendering mode; a single blank key keeps the
		// rotation layer inert.
		ring, _ = keyring.New([]string{""})
	}

	var fetcher journal.Fetcher = resilient.New(inner, ring, resilient.Config{
		Endpoint:    cfg.Proxy.Endpoint,
		RenderJS:    cfg.Proxy.RenderJS,
		MaxAttempts: cfg.HTTP.MaxRetries,
		BackoffBase: cfg.BackoffBase(),
	}, logger.Named("fetch"))

	blobs, blobCleanup, err := buildArchive(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if blobs != nil {
		prefix := fmt.Sprintf("%s/%s", cfg.Archive.Prefix, runID)
		fetcher = archiving.New(fetcher, blobs, sha256.New(), prefix, logger.Named("archive"))
		prev := cleanup
		cleanup = func() {
			blobCleanup()
			prev()
		}
	}
	return fetcher, cleanup, nil
}

func buildStore(ctx context.Context, cfg config.Config) (journal.Store, error) {
	switch cfg.DB.Driver {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{DSN: cfg.DB.DSN})
		if err != nil {
			return nil, fmt.Errorf("build postgres store: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.Open(cfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("build sqlite store: %w", err)
		}
		return store, nil
	}
}

func buildArchive(ctx context.Context, cfg config.Config) (journal.BlobStore, func(), error) {
	noop := func() {}
	switch cfg.Archive.Backend {
	case "local":
		blobs, err := localarchive.New(localarchive.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			return nil, nil, fmt.Errorf("build local archive: %w", err)
		}
		return blobs, noop, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("build gcs client: %w", err)
		}
		blobs, err := gcsarchive.New(client, gcsarchive.Config{Bucket: cfg.Archive.Bucket})
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("build gcs archive: %w", err)
		}
		return blobs, func() { _ = client.Close() }, nil
	default:
		return nil, noop, nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (journal.Publisher, func(), error) {
	noop := func() {}
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		return nil, noop, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("build pubsub client: %w", err)
	}
	topic := client.Topic(cfg.PubSub.TopicName)
	cleanup := func() {
		topic.Stop()
		_ = client.Close()
	}
	return pubsubpublisher.New(topic), cleanup, nil
}

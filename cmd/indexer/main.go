package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/events"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	corpusPath := flag.String("corpus", "", "corpus file or directory, overrides indexer.corpusPath")
	idf := flag.String("idf", "", "idf formula (raw, smoothing, probability), overrides indexer.idf")
	publish := flag.Bool("publish", true, "announce the new snapshot on kafka")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpusPath != "" {
		cfg.Indexer.CorpusSource = "file"
		cfg.Indexer.CorpusPath = *corpusPath
	}
	if *idf != "" {
		cfg.Indexer.IDF = *idf
	}

	logger.Setup(cfg.Logging, "indexer")
	slog.Info("starting index build",
		"corpus_source", cfg.Indexer.CorpusSource,
		"idf", cfg.Indexer.IDF,
		"workers", cfg.Indexer.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *publish); err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("indexer stopped")
}

func run(ctx context.Context, cfg *config.Config, publish bool) error {
	source, err := corpus.Open(cfg.Indexer, cfg.Postgres)
	if err != nil {
		return err
	}
	defer source.Close()

	docs, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	engine, err := indexer.NewEngine(cfg.Indexer, metrics.New())
	if err != nil {
		return err
	}
	if err := engine.Build(ctx, docs); err != nil {
		return err
	}
	path, err := engine.Save()
	if err != nil {
		return err
	}
	if !publish {
		return nil
	}

	producer := events.NewProducer(cfg.Kafka)
	defer producer.Close()
	ev := events.NewIndexCompleteEvent(path, engine.Stats())
	err = resilience.Retry(ctx, "publish index complete", resilience.RetryConfig{MaxAttempts: 5, JitterFraction: 0.1},
		func(ctx context.Context) error {
			pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return events.PublishIndexComplete(pubCtx, producer, ev)
		})
	if err != nil {
		// The snapshot is on disk; searchers pick it up on their next start.
		slog.Warn("snapshot saved but not announced", "snapshot", path, "error", err)
		return nil
	}
	slog.Info("index complete event published",
		"topic", cfg.Kafka.Topics.IndexComplete,
		"snapshot", path,
		"documents", ev.Documents,
	)
	return nil
}

package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"wikiseed/internal/config"
	"wikiseed/internal/database"
	"wikiseed/internal/logger"
	"wikiseed/internal/mediawiki"
	"wikiseed/internal/normalize"
	"wikiseed/internal/pipeline"
	"wikiseed/internal/snapshot"
)

// NewCommandDeps creates CommandDeps by loading config and creating logger.
// This consolidates the common initialization code from Execute().
func NewCommandDeps() (CommandDeps, error) {
	cfg := config.Load()

	logLevel := strings.ToLower(cfg.Logger.Level)
	if logLevel == "" {
		logLevel = config.DefaultLogLevel
	}

	logCfg := &logger.Config{
		Level:       logger.Level(logLevel),
		Development: cfg.Logger.Development,
		Encoding:    viper.GetString("logger.encoding"),
		OutputPaths: viper.GetStringSlice("logger.output_paths"),
	}

	log, err := logger.New(logCfg)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := CommandDeps{
		Logger: log,
		Config: cfg,
	}

	if validateErr := deps.Validate(); validateErr != nil {
		return CommandDeps{}, fmt.Errorf("validate deps: %w", validateErr)
	}

	return deps, nil
}

// RunnerResult bundles a fully wired pipeline runner with the store it
// owns. Callers must Close the store when done.
type RunnerResult struct {
	Runner *pipeline.Runner
	Store  database.Store
}

// Close releases the store connection.
func (r *RunnerResult) Close() error {
	return r.Store.Close()
}

// NewRunner wires a pipeline runner from configuration: API client,
// fetcher, normalizer registry, store (migrated) and snapshot exporter.
func NewRunner(ctx context.Context, deps CommandDeps) (*RunnerResult, error) {
	cfg := deps.Config

	store, err := database.Open(database.Config{
		URL:        cfg.Database.URL,
		SQLitePath: cfg.Database.SQLitePath,
	}, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if migrateErr := store.Migrate(ctx); migrateErr != nil {
		store.Close()
		return nil, fmt.Errorf("migrate store: %w", migrateErr)
	}

	client := mediawiki.NewClient(mediawiki.ClientConfig{
		BaseURL:          cfg.API.BaseURL,
		UserAgent:        cfg.API.UserAgent,
		RateEvery:        cfg.API.RateEvery,
		RequestTimeout:   cfg.API.RequestTimeout,
		MaxAttempts:      cfg.API.MaxAttempts,
		RetryInitialWait: cfg.API.RetryInitialWait,
		RetryMaxWait:     cfg.API.RetryMaxWait,
	}, deps.Logger)

	exporter, err := snapshot.NewExporter(cfg.Pipeline.OutputDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	runner := pipeline.NewRunner(
		mediawiki.NewFetcher(client),
		store,
		normalize.NewDefaultRegistry(deps.Logger),
		exporter,
		deps.Logger,
		cfg.Pipeline.Workers,
	)

	return &RunnerResult{Runner: runner, Store: store}, nil
}

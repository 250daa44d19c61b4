package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eventsIngestion/internal/chain"
	"eventsIngestion/internal/config"
	"eventsIngestion/internal/contracts"
	"eventsIngestion/internal/ingest"
	"eventsIngestion/internal/metrics"
	"eventsIngestion/internal/publisher"
	"eventsIngestion/internal/reader"
	"eventsIngestion/internal/registry"
	"eventsIngestion/internal/report"
)

const (
	metricsJob      = "events_ingestion"
	afterRunTimeout = 15 * time.Second
)

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	runID := xid.New().String()
	logger = logger.With(zap.String("run_id", runID))

	rootABI, err := loadRootInterface(cfg)
	if err != nil {
		return err
	}
	childABI, err := loadInterface("child-abi", cfg.ChildABI, contracts.ChildABI)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cfg.Timeout)
	defer cancel()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.RPCRate)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	backend, err := publisher.New(publisher.Config{
		Kind:                 cfg.BrokerKind,
		Brokers:              cfg.Brokers,
		ClientID:             cfg.ClientID,
		KafkaBatchTimeout:    cfg.KafkaBatchTimeout,
		KafkaAutoCreateTopic: cfg.KafkaAutoCreateTopic,
	}, logger)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder()
	orchestrator := ingest.NewOrchestrator(ingest.Config{
		RunID:          runID,
		Topic:          cfg.Topic,
		StartBlock:     cfg.StartBlock,
		RootAddress:    cfg.Root(),
		RootInterface:  rootABI,
		ChildInterface: childABI,
		MaxConcurrency: cfg.MaxConcurrency,
	},
		reader.NewReader(chainClient, cfg.BatchSize, logger),
		registry.NewResolver(chainClient, cfg.RegistryMethod),
		publisher.NewLifecycle(backend),
		ingest.Observers{ingest.NewLogObserver(logger), recorder},
	)

	fields := []zap.Field{
		zap.String("rpc", cfg.RPCURL),
		zap.String("root", cfg.Root().Hex()),
		zap.String("broker_kind", cfg.BrokerKind),
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.Uint64("start_block", cfg.StartBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	}
	if chainID, err := chainClient.ChainID(ctx); err == nil {
		fields = append(fields, zap.String("chain_id", chainID.String()))
	} else {
		logger.Warn("chain id unavailable", zap.Error(err))
	}
	logger.Info("ingestion start", fields...)

	result := orchestrator.Run(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), result.Message())

	afterRun(cfg, result, recorder, logger)

	if result.State == ingest.Failed {
		return errRunFailed
	}
	return nil
}

// afterRun pushes metrics and writes the run report. Failures are logged
// and never change the run result.
func afterRun(cfg config.Config, result ingest.Result, recorder *metrics.Recorder, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), afterRunTimeout)
	defer cancel()

	if cfg.Pushgateway != "" {
		if err := recorder.Push(ctx, cfg.Pushgateway, metricsJob, result.RunID); err != nil {
			logger.Warn("metrics push failed", zap.Error(err))
		}
	}

	if cfg.PGDSN == "" {
		return
	}
	store, err := report.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		logger.Warn("run report unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Warn("run report failed", zap.Error(err))
		return
	}
	err = store.SaveRun(ctx, report.Run{
		Result:      result,
		RootAddress: cfg.Root().Hex(),
		Topic:       cfg.Topic,
		StartBlock:  cfg.StartBlock,
	})
	if err != nil {
		logger.Warn("run report failed", zap.Error(err))
		return
	}
	logger.Info("run report saved")
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eventsIngestion/internal/chain"
	"eventsIngestion/internal/ingest"
	"eventsIngestion/internal/registry"
)

func runChildren(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRegistry(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rootABI, err := loadRootInterface(cfg)
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

	orchestrator := ingest.NewOrchestrator(ingest.Config{
		RootAddress:   cfg.Root(),
		RootInterface: rootABI,
	}, nil, registry.NewResolver(chainClient, cfg.RegistryMethod), nil, nil)

	snapshot, err := orchestrator.ResolveChildren(ctx)
	if err != nil {
		return err
	}
	logger.Info("children resolved", zap.String("root", cfg.Root().Hex()), zap.Int("children", snapshot.Len()))

	out := cmd.OutOrStdout()
	for _, address := range snapshot.Addresses() {
		fmt.Fprintln(out, address.Hex())
	}
	return nil
}

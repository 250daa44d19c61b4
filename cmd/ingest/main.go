package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"eventsIngestion/internal/config"
	"eventsIngestion/internal/contracts"
)

// errRunFailed marks a run whose result line was already printed.
var errRunFailed = errors.New("run failed")

func main() {
	root := &cobra.Command{
		Use:           "ingest",
		Short:         "Contract event ingestion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before the environment is read")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Replay root and child contract events to the broker",
		RunE:  runIngest,
	}

	addChainFlags(runCmd)
	runCmd.Flags().StringSlice("brokers", nil, "broker addresses (comma-separated); a redis url or a directory for redis/jsonl")
	runCmd.Flags().String("topic", "", "destination topic")
	runCmd.Flags().Uint64("start-block", 0, "first block (inclusive) for root and children")
	runCmd.Flags().String("broker-kind", "kafka", "broker backend (kafka, redis, jsonl)")
	runCmd.Flags().String("client-id", config.DefaultClientID, "broker client id")
	runCmd.Flags().String("child-abi", "", "child contract ABI JSON file (default: embedded)")
	runCmd.Flags().Uint64("batch-size", 0, "blocks per log query, 0 means one query up to head")
	runCmd.Flags().Int("max-concurrency", 0, "maximum children processed at once, 0 means unbounded")
	runCmd.Flags().Duration("kafka-batch-timeout", 10*time.Millisecond, "kafka writer batch timeout")
	runCmd.Flags().Bool("kafka-auto-create-topic", false, "let the kafka writer create a missing topic")
	runCmd.Flags().String("pushgateway", "", "Prometheus Pushgateway URL")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for the run report")

	root.AddCommand(runCmd)

	childrenCmd := &cobra.Command{
		Use:   "children",
		Short: "Print the child addresses registered on the root contract",
		RunE:  runChildren,
	}

	addChainFlags(childrenCmd)

	root.AddCommand(childrenCmd)

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "chain JSON-RPC URL")
	cmd.Flags().String("root-address", "", "root (registry) contract address")
	cmd.Flags().String("root-abi", "", "root contract ABI JSON file (default: embedded)")
	cmd.Flags().String("registry-method", contracts.DefaultRegistryMethod, "root method returning the child addresses")
	cmd.Flags().Int("rpc-rate", 0, "maximum RPC requests per second, 0 means unlimited")
	cmd.Flags().Duration("timeout", 0, "deadline for the whole command, 0 means none")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

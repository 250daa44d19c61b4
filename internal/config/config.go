package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"eventsIngestion/internal/contracts"
	"eventsIngestion/internal/model"
)

const (
	envPrefix = "INGEST"

	DefaultClientID       = "events-ingestion"
	DefaultRegistryMethod = contracts.DefaultRegistryMethod
)

var brokerKinds = []string{"kafka", "redis", "jsonl"}

// envAliases binds each required key to its prefixed name and the name
// used by existing deployments.
var envAliases = map[string][]string{
	"rpc":          {"INGEST_RPC", "RPC_PROVIDER_URL"},
	"root-address": {"INGEST_ROOT_ADDRESS", "DAPPHOMES_FACTORY_ADDRESS"},
	"brokers":      {"INGEST_BROKERS", "APACHE_KAFKA_BROKER"},
	"topic":        {"INGEST_TOPIC", "KAFKA_TOPIC"},
	"start-block":  {"INGEST_START_BLOCK", "INIT_BLOCK"},
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL      string
	RootAddress string
	Brokers     []string
	Topic       string
	StartBlock  uint64
	// HasStartBlock is false when no source set start-block; zero is a valid block.
	HasStartBlock bool

	BrokerKind           string
	ClientID             string
	RootABI              string
	ChildABI             string
	RegistryMethod       string
	BatchSize            uint64
	MaxConcurrency       int
	RPCRate              int
	Timeout              time.Duration
	KafkaBatchTimeout    time.Duration
	KafkaAutoCreateTopic bool
	Pushgateway          string
	PGDSN                string
	LogLevel             string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("broker-kind", "kafka")
	v.SetDefault("client-id", DefaultClientID)
	v.SetDefault("registry-method", DefaultRegistryMethod)
	v.SetDefault("batch-size", uint64(0))
	v.SetDefault("max-concurrency", 0)
	v.SetDefault("rpc-rate", 0)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("kafka-batch-timeout", 10*time.Millisecond)
	v.SetDefault("kafka-auto-create-topic", false)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:               strings.TrimSpace(v.GetString("rpc")),
		RootAddress:          strings.TrimSpace(v.GetString("root-address")),
		Brokers:              getStringSlice(v, "brokers"),
		Topic:                strings.TrimSpace(v.GetString("topic")),
		BrokerKind:           strings.ToLower(strings.TrimSpace(v.GetString("broker-kind"))),
		ClientID:             v.GetString("client-id"),
		RootABI:              v.GetString("root-abi"),
		ChildABI:             v.GetString("child-abi"),
		RegistryMethod:       v.GetString("registry-method"),
		BatchSize:            v.GetUint64("batch-size"),
		MaxConcurrency:       v.GetInt("max-concurrency"),
		RPCRate:              v.GetInt("rpc-rate"),
		Timeout:              v.GetDuration("timeout"),
		KafkaBatchTimeout:    v.GetDuration("kafka-batch-timeout"),
		KafkaAutoCreateTopic: v.GetBool("kafka-auto-create-topic"),
		Pushgateway:          v.GetString("pushgateway"),
		PGDSN:                v.GetString("pg-dsn"),
		LogLevel:             v.GetString("log-level"),
	}

	if raw := strings.TrimSpace(v.GetString("start-block")); v.IsSet("start-block") && raw != "" {
		block, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Config{}, &model.ConfigError{Field: "start-block", Reason: fmt.Sprintf("not a block number: %q", raw)}
		}
		cfg.StartBlock = block
		cfg.HasStartBlock = true
	}

	return cfg, nil
}

// LoadDotEnv exports the variables of a .env file that are not already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks every setting a publishing run needs.
func (c Config) Validate() error {
	if err := c.ValidateRegistry(); err != nil {
		return err
	}
	if len(c.Brokers) == 0 {
		return &model.ConfigError{Field: "brokers", Reason: "is required"}
	}
	if c.Topic == "" {
		return &model.ConfigError{Field: "topic", Reason: "is required"}
	}
	if !c.HasStartBlock {
		return &model.ConfigError{Field: "start-block", Reason: "is required"}
	}
	if !slices.Contains(brokerKinds, c.BrokerKind) {
		return &model.ConfigError{Field: "broker-kind", Reason: fmt.Sprintf("must be one of %s", strings.Join(brokerKinds, ", "))}
	}
	if c.MaxConcurrency < 0 {
		return &model.ConfigError{Field: "max-concurrency", Reason: "must not be negative"}
	}
	return nil
}

// ValidateRegistry checks the settings needed to read the registry only.
func (c Config) ValidateRegistry() error {
	if c.RPCURL == "" {
		return &model.ConfigError{Field: "rpc", Reason: "is required"}
	}
	if c.RootAddress == "" {
		return &model.ConfigError{Field: "root-address", Reason: "is required"}
	}
	if _, err := ParseAddress(c.RootAddress); err != nil {
		return &model.ConfigError{Field: "root-address", Reason: err.Error()}
	}
	if c.RegistryMethod == "" {
		return &model.ConfigError{Field: "registry-method", Reason: "must not be empty"}
	}
	if c.RPCRate < 0 {
		return &model.ConfigError{Field: "rpc-rate", Reason: "must not be negative"}
	}
	return nil
}

// Root returns the parsed root address. Call after validation.
func (c Config) Root() common.Address {
	return common.HexToAddress(c.RootAddress)
}

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return splitAndClean(strings.Join(typed, ","))
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

package publisher

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	KindKafka = "kafka"
	KindRedis = "redis"
	KindJSONL = "jsonl"
)

// Config selects and configures a backend.
type Config struct {
	Kind                 string
	Brokers              []string
	ClientID             string
	KafkaBatchTimeout    time.Duration
	KafkaAutoCreateTopic bool
}

// New builds the backend named by cfg.Kind.
func New(cfg Config, logger *zap.Logger) (Publisher, error) {
	switch cfg.Kind {
	case KindKafka, "":
		return NewKafka(KafkaConfig{
			Brokers:         cfg.Brokers,
			ClientID:        cfg.ClientID,
			BatchTimeout:    cfg.KafkaBatchTimeout,
			AutoCreateTopic: cfg.KafkaAutoCreateTopic,
		}, logger), nil
	case KindRedis:
		if len(cfg.Brokers) != 1 {
			return nil, fmt.Errorf("redis backend takes exactly one url, got %d", len(cfg.Brokers))
		}
		return NewRedis(cfg.Brokers[0], cfg.ClientID), nil
	case KindJSONL:
		if len(cfg.Brokers) != 1 {
			return nil, fmt.Errorf("jsonl backend takes exactly one directory, got %d", len(cfg.Brokers))
		}
		return NewJSONL(cfg.Brokers[0]), nil
	default:
		return nil, fmt.Errorf("unsupported broker kind: %s", cfg.Kind)
	}
}

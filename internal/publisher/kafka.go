package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"eventsIngestion/internal/model"
)

// KafkaConfig configures the Kafka backend.
type KafkaConfig struct {
	Brokers         []string
	ClientID        string
	BatchTimeout    time.Duration
	AutoCreateTopic bool
}

// Kafka produces messages with a kafka-go Writer. Messages sharing a key go
// to the same partition, so per-key order is kept.
type Kafka struct {
	cfg    KafkaConfig
	logger *zap.Logger
	writer *kafka.Writer
}

// NewKafka builds an unopened Kafka backend.
func NewKafka(cfg KafkaConfig, logger *zap.Logger) *Kafka {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Kafka{cfg: cfg, logger: logger}
}

// Open checks that a broker is reachable and prepares the writer.
func (k *Kafka) Open(ctx context.Context) error {
	if len(k.cfg.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	dialer := &kafka.Dialer{ClientID: k.cfg.ClientID}
	var lastErr error
	for _, broker := range k.cfg.Brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			k.logger.Warn("kafka broker unreachable", zap.String("broker", broker), zap.Error(err))
			lastErr = err
			continue
		}
		_ = conn.Close()
		lastErr = nil
		break
	}
	if lastErr != nil {
		return fmt.Errorf("dial kafka: %w", lastErr)
	}

	sugar := k.logger.Sugar()
	k.writer = &kafka.Writer{
		Addr:                   kafka.TCP(k.cfg.Brokers...),
		Balancer:               &kafka.Murmur2Balancer{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           k.cfg.BatchTimeout,
		AllowAutoTopicCreation: k.cfg.AutoCreateTopic,
		Transport:              &kafka.Transport{ClientID: k.cfg.ClientID},
		Logger:                 kafka.LoggerFunc(sugar.Debugf),
		ErrorLogger:            kafka.LoggerFunc(sugar.Errorf),
	}
	return nil
}

// Send writes the batch synchronously. The writer is safe for concurrent use.
func (k *Kafka) Send(ctx context.Context, topic string, messages []model.BrokerMessage) error {
	return k.writer.WriteMessages(ctx, toKafkaMessages(topic, messages)...)
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

func toKafkaMessages(topic string, messages []model.BrokerMessage) []kafka.Message {
	out := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		headers := make([]kafka.Header, 0, len(msg.Headers))
		for _, h := range msg.Headers {
			headers = append(headers, kafka.Header{Key: h.Key, Value: h.Value})
		}
		out = append(out, kafka.Message{
			Topic:   topic,
			Key:     msg.Key,
			Value:   msg.Value,
			Headers: headers,
		})
	}
	return out
}

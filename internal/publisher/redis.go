package publisher

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"eventsIngestion/internal/model"
)

// Redis appends messages to a Redis stream named after the topic.
type Redis struct {
	url        string
	clientName string
	client     *redis.Client
}

// NewRedis builds an unopened Redis Streams backend from a redis:// URL.
func NewRedis(url, clientName string) *Redis {
	return &Redis{url: url, clientName: clientName}
}

func (r *Redis) Open(ctx context.Context) error {
	opts, err := redis.ParseURL(r.url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	opts.ClientName = r.clientName

	r.client = redis.NewClient(opts)
	if err := r.client.Ping(ctx).Err(); err != nil {
		_ = r.client.Close()
		r.client = nil
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Send pipelines one XADD per message, in order.
func (r *Redis) Send(ctx context.Context, topic string, messages []model.BrokerMessage) error {
	pipe := r.client.Pipeline()
	for _, msg := range messages {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: topic,
			Values: streamValues(msg),
		})
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func streamValues(msg model.BrokerMessage) []interface{} {
	values := make([]interface{}, 0, 4+2*len(msg.Headers))
	values = append(values, "key", string(msg.Key), "value", string(msg.Value))
	for _, h := range msg.Headers {
		values = append(values, "h:"+h.Key, string(h.Value))
	}
	return values
}

package outbox

import (
	"context"
	"log/slog"
)

// LogProducer stands in for Kafka when no brokers are configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, _ map[string]string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event published", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"proof-gateway/internal/platform/audit"
)

// Publisher ships audit events to a Kafka topic via franz-go. Delivery is
// asynchronous; a failed produce is logged, never surfaced to domain logic.
type Publisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// New connects to the given brokers. Returns nil if brokers is empty (audit
// stream not configured).
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, logger: logger}, nil
}

func (p *Publisher) Publish(ctx context.Context, event audit.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal audit event", "action", event.Action, "error", err)
		return
	}

	record := &kgo.Record{Key: []byte(event.Action), Value: payload}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("produce audit event", "action", event.Action, "error", err)
		}
	})
}

func (p *Publisher) Close() {
	p.client.Close()
}

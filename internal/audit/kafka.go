package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"certverify/internal/audit/models"
)

// KafkaSink mirrors verification log entries to a Kafka topic. Records are
// keyed by the lookup identifier so all attempts against one certificate
// land in the same partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, e *models.Entry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding verification log entry: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(e.Identifier),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("producing verification log entry: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}

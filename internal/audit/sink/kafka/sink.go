// Package kafka fans audit entries out to a Kafka topic for downstream
// consumers (SIEM, analytics). The relational store stays the source of
// truth; this sink is best-effort by the ledger's contract.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"aide/internal/audit"
)

// Sink publishes one record per entry. Records are keyed by resource ID so a
// resource's trail lands in one partition, in order.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects to the given brokers. Callers own Close.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Publish(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.ResourceID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}

func (s *Sink) Close() {
	s.client.Close()
}

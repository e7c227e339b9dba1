// Package producer publishes distribution result events to Kafka.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aa-dank/review-sender/internal/events"
)

const writeTimeout = 10 * time.Second

// ParseBrokers splits a comma-separated broker string into addresses.
func ParseBrokers(brokers string) []string {
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}
	return brokerList
}

// Producer wraps a Kafka writer publishing DistributionResult events.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a producer for the given brokers and topic.
// Writes are synchronous and wait for the leader ack.
func NewProducer(brokers string, topic string) (*Producer, error) {
	if strings.TrimSpace(brokers) == "" {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("kafka topic cannot be empty")
	}

	brokerList := ParseBrokers(brokers)

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
	)

	// Hash balancer keys partitions by run ID so one run's results stay ordered.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}, nil
}

func buildMessage(result *events.DistributionResult) (kafka.Message, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal distribution result: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(result.RunID),
		Value: payload,
		Headers: []kafka.Header{
			{
				Key:   "schema_version",
				Value: []byte(fmt.Sprintf("%d", result.SchemaVersion)),
			},
			{
				Key:   "status",
				Value: []byte(result.Status),
			},
		},
		Time: time.Now(),
	}

	return msg, nil
}

// Publish serializes a distribution result to JSON and writes it to Kafka.
func (p *Producer) Publish(ctx context.Context, result *events.DistributionResult) error {
	msg, err := buildMessage(result)
	if err != nil {
		slog.Error("Failed to build distribution result message",
			"run_id", result.RunID,
			"row", result.Row,
			"error", err,
		)
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write message to Kafka",
			"run_id", result.RunID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	slog.Debug("Published distribution result",
		"run_id", result.RunID,
		"row", result.Row,
		"status", result.Status,
	)

	return nil
}

// Close gracefully closes the Kafka writer.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	return nil
}

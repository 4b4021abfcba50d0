package kafka

import (
	"fmt"
	"time"

	"github.com/Shopify/sarama"

	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// Producer is a thin wrapper around a Sarama synchronous producer.
type Producer struct {
	producer sarama.SyncProducer
	logger   logger.Logger
}

// NewProducer creates a new Kafka producer for the given brokers.
func NewProducer(brokers []string, log logger.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Retry.Backoff = 250 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Producer{producer: producer, logger: log}, nil
}

// SendMessage publishes value to topic, keyed by key when non-empty.
func (p *Producer) SendMessage(topic, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("Failed to send message to Kafka", "error", err, "topic", topic, "key", key)
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	p.logger.Debug("Message sent to Kafka", "topic", topic, "key", key, "partition", partition, "offset", offset)
	return nil
}

// Close closes the underlying producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}

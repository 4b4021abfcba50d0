package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvasiljevic/delivery-shop/pkg/kafka"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// Event types published on the order topic.
const (
	TypeOrderCreated   = "order_created"
	TypeOrderPickedUp  = "order_picked_up"
	TypeOrderDelivered = "order_delivered"
)

// OrderEvent is the payload published after a lifecycle transition commits.
type OrderEvent struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	OrderID    int64           `json:"order_id"`
	User       string          `json:"user,omitempty"`
	TotalPrice decimal.Decimal `json:"total_price,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher emits order events. Publishing is best-effort: the enclosing
// transaction has already committed, so failures are logged and swallowed.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent)
}

// KafkaPublisher publishes order events to a Kafka topic.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, topic string, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, logger: log}
}

func (p *KafkaPublisher) Publish(_ context.Context, event OrderEvent) {
	event.EventID = uuid.New().String()
	event.OccurredAt = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal order event", "error", err, "type", event.Type)
		return
	}

	if err := p.producer.SendMessage(p.topic, event.EventID, payload); err != nil {
		p.logger.Warn("Order event not published", "error", err, "type", event.Type, "orderID", event.OrderID)
	}
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) {}

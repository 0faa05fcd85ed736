package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/jogardn/order-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	OrderCreatedTopic = "order.created"
	OrderUpdatedTopic = "order.updated"
	OrderDeletedTopic = "order.deleted"
)

var Topics = []string{OrderCreatedTopic, OrderUpdatedTopic, OrderDeletedTopic}

// OrderEvent records one mutation of the dashboard's order catalog. For
// deletions only OrderID is set.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Product       string    `json:"product,omitempty"`
	Quantity      int       `json:"quantity,omitempty"`
	OrderValue    float64   `json:"order_value,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	EventTime     time.Time `json:"event_time"`
}

var ErrInvalidEvent = errors.New("invalid order event")

// Validate checks the payload against its topic. Created and updated events
// carry the full order; deleted events carry only the id.
func (e OrderEvent) Validate() error {
	if e.OrderID == "" {
		return fmt.Errorf("%w: missing order_id", ErrInvalidEvent)
	}
	switch e.Type {
	case OrderCreatedTopic, OrderUpdatedTopic:
		if e.CustomerName == "" || e.Product == "" || e.Quantity < 1 {
			return fmt.Errorf("%w: %s for %s lacks order details", ErrInvalidEvent, e.Type, e.OrderID)
		}
	case OrderDeletedTopic:
		if e.CustomerName != "" || e.CustomerEmail != "" || e.Product != "" || e.Quantity != 0 || e.OrderValue != 0 {
			return fmt.Errorf("%w: delete for %s carries order details", ErrInvalidEvent, e.OrderID)
		}
	case "":
		return fmt.Errorf("%w: no type", ErrInvalidEvent)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	return nil
}

func NewOrderEvent(topic string, order models.Order, actor string) OrderEvent {
	return OrderEvent{
		Type:          topic,
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Product:       order.Product,
		Quantity:      order.Quantity,
		OrderValue:    order.OrderValue,
		Actor:         actor,
	}
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return NewKafkaProducerWith(producer, logger), nil
}

func NewKafkaProducerWith(producer sarama.SyncProducer, logger *logrus.Logger) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		logger:   logger,
	}
}

func (p *KafkaProducer) PublishOrderEvent(event OrderEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	event.EventTime = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: event.Type,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     event.Type,
		"partition": partition,
		"offset":    offset,
		"order_id":  event.OrderID,
	}).Info("Event published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

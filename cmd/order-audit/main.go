package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jogardn/order-dashboard/internal/config"
	"github.com/jogardn/order-dashboard/internal/events"
	"github.com/sirupsen/logrus"
)

// AuditLog tallies order lifecycle events per topic and logs each one.
type AuditLog struct {
	counts map[string]int
	mutex  sync.Mutex
	logger *logrus.Logger
}

func NewAuditLog(logger *logrus.Logger) *AuditLog {
	return &AuditLog{counts: make(map[string]int), logger: logger}
}

func (a *AuditLog) HandleOrderEvent(event events.OrderEvent) error {
	a.mutex.Lock()
	a.counts[event.Type]++
	seen := a.counts[event.Type]
	a.mutex.Unlock()

	a.logger.WithFields(logrus.Fields{
		"type":        event.Type,
		"order_id":    event.OrderID,
		"customer":    event.CustomerName,
		"product":     event.Product,
		"quantity":    event.Quantity,
		"order_value": event.OrderValue,
		"actor":       event.Actor,
		"event_time":  event.EventTime,
		"seen":        seen,
	}).Info("Order event")
	return nil
}

func (a *AuditLog) Counts() map[string]int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	out := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

func main() {
	logger := config.NewLogger(config.GetEnv("LOG_LEVEL", "info"))

	brokers := config.GetEnv("KAFKA_BROKERS", "localhost:9092")
	groupID := config.GetEnv("KAFKA_GROUP_ID", "order-audit-group")

	audit := NewAuditLog(logger)
	consumer, err := events.NewKafkaConsumer(brokers, groupID, audit, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Kafka consumer stopped")
		}
	}()

	logger.WithFields(logrus.Fields{
		"brokers": brokers,
		"topics":  events.Topics,
	}).Info("Order audit started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.WithField("counts", audit.Counts()).Info("Shutting down order audit...")
}

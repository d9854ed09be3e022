package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultCustomerTopic = "order-confirmations"
	DefaultAdminTopic    = "order-alerts"
)

// messageWriter is the part of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers       []string
	CustomerTopic string
	AdminTopic    string
	AdminEmail    string
}

// KafkaNotifier publishes notification messages keyed by order number. The
// writer hashes the key, so within a topic every message for one order goes
// to the same partition.
type KafkaNotifier struct {
	writer        messageWriter
	customerTopic string
	adminTopic    string
	adminEmail    string
}

func NewKafkaNotifier(cfg KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka notifier: no brokers configured")
	}
	return newKafkaNotifier(newKafkaWriter(cfg.Brokers), cfg), nil
}

// topic is set per message
func newKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func newKafkaNotifier(w messageWriter, cfg KafkaConfig) *KafkaNotifier {
	if cfg.CustomerTopic == "" {
		cfg.CustomerTopic = DefaultCustomerTopic
	}
	if cfg.AdminTopic == "" {
		cfg.AdminTopic = DefaultAdminTopic
	}
	return &KafkaNotifier{
		writer:        w,
		customerTopic: cfg.CustomerTopic,
		adminTopic:    cfg.AdminTopic,
		adminEmail:    cfg.AdminEmail,
	}
}

func (n *KafkaNotifier) NotifyCustomer(ctx context.Context, order *domain.Order) error {
	return n.publish(ctx, n.customerTopic, NewCustomerMessage(order))
}

func (n *KafkaNotifier) NotifyAdmin(ctx context.Context, order *domain.Order) error {
	return n.publish(ctx, n.adminTopic, NewAdminMessage(order, n.adminEmail))
}

func (n *KafkaNotifier) publish(ctx context.Context, topic string, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", m.Kind, err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(m.OrderNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(m.Kind)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", m.Kind, topic, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

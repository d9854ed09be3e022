package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaNotifier_Customer(t *testing.T) {
	w := &WriterMock{}
	n := newKafkaNotifier(w, KafkaConfig{AdminEmail: "shop@example.com"})
	order := testOrder()

	require.NoError(t, n.NotifyCustomer(context.Background(), order))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, DefaultCustomerTopic, msg.Topic)
	assert.Equal(t, order.OrderNumber, string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, string(KindCustomerConfirmation), string(msg.Headers[0].Value))

	var m Message
	require.NoError(t, json.Unmarshal(msg.Value, &m))
	assert.Equal(t, "ayesha@example.com", m.Recipient)
	assert.Equal(t, "Order Confirmation - #"+order.OrderNumber, m.Subject)
	assert.Equal(t, order.Lines, m.Lines)
	assert.True(t, order.CreatedAt.Equal(m.PlacedAt))
}

func TestKafkaNotifier_Admin(t *testing.T) {
	w := &WriterMock{}
	n := newKafkaNotifier(w, KafkaConfig{AdminTopic: "alerts", AdminEmail: "shop@example.com"})

	require.NoError(t, n.NotifyAdmin(context.Background(), testOrder()))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "alerts", w.messages[0].Topic)

	var m Message
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &m))
	assert.Equal(t, KindAdminAlert, m.Kind)
	assert.Equal(t, "shop@example.com", m.Recipient)
	assert.Equal(t, "New Order #BA17604000001230001ABCD - Rs. 9000.00", m.Subject)
}

func TestKafkaNotifier_WriteError(t *testing.T) {
	w := &WriterMock{err: errBroker}
	n := newKafkaNotifier(w, KafkaConfig{})

	err := n.NotifyCustomer(context.Background(), testOrder())

	assert.ErrorIs(t, err, errBroker)
}

func TestNewKafkaNotifier_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaNotifier(KafkaConfig{})
	assert.Error(t, err)

	n, err := NewKafkaNotifier(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.NoError(t, n.Close())
}

func TestKafkaWriter_PartitionsByOrderKey(t *testing.T) {
	w := newKafkaWriter([]string{"localhost:9092"})
	t.Cleanup(func() { _ = w.Close() })

	require.IsType(t, &kafka.Hash{}, w.Balancer)

	partitions := []int{0, 1, 2, 3, 4, 5, 6, 7}
	key := []byte(testOrder().OrderNumber)
	first := w.Balancer.Balance(kafka.Message{Key: key, Topic: DefaultCustomerTopic}, partitions...)
	for i := 0; i < 5; i++ {
		got := w.Balancer.Balance(kafka.Message{Key: key, Topic: DefaultAdminTopic}, partitions...)
		assert.Equal(t, first, got)
	}
}

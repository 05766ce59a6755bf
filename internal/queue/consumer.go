package queue

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// Message is one delivered queue message. Ack commits it; a message that is
// never acked is redelivered by the broker's own policy.
type Message struct {
	Value []byte
	ack   func()
}

// NewMessage builds a message with an explicit ack callback. Exposed so the
// worker tests can feed messages without a broker.
func NewMessage(value []byte, ack func()) *Message {
	return &Message{Value: value, ack: ack}
}

// Ack marks the message as processed.
func (m *Message) Ack() {
	if m.ack != nil {
		m.ack()
	}
}

// Consumer adapts a Kafka consumer group to a non-blocking Poll with manual
// acks, which is what the worker's poll loop expects.
type Consumer struct {
	client   sarama.ConsumerGroup
	topic    string
	messages chan *Message
	log      *logrus.Logger
}

// NewConsumer starts a consumer group session on topic and begins buffering
// messages for Poll.
func NewConsumer(ctx context.Context, brokers []string, topic, groupID string, log *logrus.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	c := &Consumer{
		client:   client,
		topic:    topic,
		messages: make(chan *Message),
		log:      log,
	}

	go func() {
		for {
			// Consume must be re-invoked after every server-side rebalance.
			if err := client.Consume(ctx, []string{topic}, &groupHandler{out: c.messages}); err != nil {
				log.WithError(err).WithField("topic", topic).Error("consumer group error")
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	return c, nil
}

// Poll returns the next buffered message without blocking. The second result
// is false when no message is ready.
func (c *Consumer) Poll() (*Message, bool) {
	select {
	case msg := <-c.messages:
		return msg, true
	default:
		return nil, false
	}
}

// Close tears down the consumer group.
func (c *Consumer) Close() error {
	return c.client.Close()
}

type groupHandler struct {
	out chan *Message
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		msg := NewMessage(message.Value, func() {
			session.MarkMessage(message, "")
		})
		select {
		case h.out <- msg:
		case <-session.Context().Done():
			return nil
		}
	}
	return nil
}

// Package queue wraps Kafka publishing and consumption behind the small
// produce and poll/ack surfaces the service needs.
package queue

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

// NewSyncProducer builds a sarama SyncProducer with full acks and retries.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	return sarama.NewSyncProducer(brokers, config)
}

// Producer publishes JSON payloads to a fixed topic.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topic}
}

// Publish marshals payload and sends it keyed by key.
func (p *Producer) Publish(key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshaling queue payload")
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return errors.Wrapf(err, "publishing to %s", p.topic)
	}
	return nil
}

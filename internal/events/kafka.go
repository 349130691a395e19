package events

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const kafkaConnectAttempts = 5

// KafkaPublisher writes events synchronously, waiting for all in-sync replicas.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

func kafkaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	return config
}

// NewKafkaPublisher connects to brokers, retrying while the cluster comes up.
func NewKafkaPublisher(ctx context.Context, brokers []string, log *zap.Logger) (*KafkaPublisher, error) {
	var lastErr error
	for i := 1; i <= kafkaConnectAttempts; i++ {
		producer, err := sarama.NewSyncProducer(brokers, kafkaConfig())
		if err == nil {
			log.Info("kafka producer connected", zap.Strings("brokers", brokers))
			return NewKafkaPublisherWithProducer(producer, log), nil
		}
		lastErr = err
		log.Warn("kafka connect failed", zap.Int("attempt", i), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect kafka after %d attempts: %w", kafkaConnectAttempts, lastErr)
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := event.Encode()
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: event.EventType,
		Value: sarama.ByteEncoder(body),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s: %w", event.EventType, err)
	}
	p.log.Debug("event published",
		zap.String("topic", event.EventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

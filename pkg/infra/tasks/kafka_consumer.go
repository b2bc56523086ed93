package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

// Handler processes one decoded job. A returned error is logged and the
// message is still committed; jobs are best-effort, not exactly-once.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

type KafkaConsumer struct {
	consumer *kafka.Consumer
	handler  Handler
	logger   *logrus.Logger
}

func NewKafkaConsumer(host, port, topic, groupID string, handler Handler, logger *logrus.Logger) (*KafkaConsumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": fmt.Sprintf("%s:%s", host, port),
		"group.id":          groupID,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	if err := consumer.SubscribeTopics([]string{topic}, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return &KafkaConsumer{consumer: consumer, handler: handler, logger: logger}, nil
}

// Run polls for jobs until the context is cancelled.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := c.consumer.ReadMessage(time.Second)
		if err != nil {
			var kafkaErr kafka.Error
			if errors.As(err, &kafkaErr) && kafkaErr.Code() == kafka.ErrTimedOut {
				continue
			}
			c.logger.WithError(err).Error("failed to read job message")
			continue
		}

		var job Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			c.logger.WithError(err).Warn("discarding malformed job message")
			continue
		}

		if err := c.handler.Handle(ctx, job); err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"job_type": job.Type,
				"schema":   job.Schema,
			}).Error("job handler failed")
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.consumer.Close()
}

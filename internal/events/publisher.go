package events

import (
	"context"

	"minerva/internal/adapters/kafka"
	"minerva/internal/workflow"
	"minerva/pkg/logger"
)

// Publisher forwards run progress to Kafka
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new progress event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "events_publisher"),
	}
}

// Emit implements workflow.ProgressSink. Events are keyed by run ID so
// one run's progress stays ordered within a partition.
func (p *Publisher) Emit(ctx context.Context, event workflow.ProgressEvent) error {
	topic := kafka.TopicRunProgress
	if event.Status == workflow.EventRunFinished {
		topic = kafka.TopicRunFinished
	}
	return p.producer.Publish(ctx, topic, event.RunID, event)
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends events to durable queues as persistent JSON messages.
// Each publish opens its own connection, so a broker outage only fails the
// publish in progress.
type Publisher struct {
	url string
	log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// PublishSOSAlert publishes ev to QueueSOSAlert.
func (p *Publisher) PublishSOSAlert(ctx context.Context, ev SOSAlertEvent) error {
	return p.publish(ctx, QueueSOSAlert, ev)
}

// PublishBloodRequestPosted publishes ev to QueueBloodRequestPosted.
func (p *Publisher) PublishBloodRequestPosted(ctx context.Context, ev BloodRequestPostedEvent) error {
	return p.publish(ctx, QueueBloodRequestPosted, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", queue, err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", queue, err)
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.log.Warn("rabbitmq publish failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("publish %s: %w", queue, err)
	}
	p.log.Debug("event published", zap.String("queue", queue), zap.Int("bytes", len(body)))
	return nil
}

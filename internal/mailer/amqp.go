package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modoocon/modoocon/internal/observability/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPDispatcher publishes mail jobs as persistent JSON messages onto a
// durable queue. A separate consumer worker performs delivery.
type AMQPDispatcher struct {
	channel *amqp.Channel
	queue   string
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewAMQPDispatcher(conn *amqp.Connection, queue string, log *zap.Logger, m *metrics.Metrics) (*AMQPDispatcher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &AMQPDispatcher{
		channel: ch,
		queue:   queue,
		log:     log.Named("mailer.dispatcher"),
		metrics: m,
	}, nil
}

func (d *AMQPDispatcher) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail job: %w", err)
	}

	err = d.channel.PublishWithContext(ctx, "", d.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish mail job: %w", err)
	}

	d.metrics.RecordMailQueued(ctx, msg.Kind)
	d.log.Debug("mail job queued",
		zap.String("kind", msg.Kind),
		zap.String("to", msg.To),
	)
	return nil
}

package mailer

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Worker consumes queued mail jobs and delivers them via the Sender.
type Worker struct {
	conn   *amqp.Connection
	queue  string
	sender Sender
	log    *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(conn *amqp.Connection, queue string, sender Sender, log *zap.Logger) *Worker {
	return &Worker{
		conn:   conn,
		queue:  queue,
		sender: sender,
		log:    log.Named("mailer.worker"),
		done:   make(chan struct{}),
	}
}

func (w *Worker) Start() error {
	ch, err := w.conn.Channel()
	if err != nil {
		return err
	}
	if err := ch.Qos(10, 0, false); err != nil {
		w.log.Warn("set qos failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(w.queue, true, false, false, false, nil); err != nil {
		return err
	}

	deliveries, err := ch.Consume(w.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	go func() {
		defer close(w.done)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.log.Warn("delivery channel closed")
					return
				}
				w.handle(ctx, d)
			}
		}
	}()

	w.log.Info("mail worker started", zap.String("queue", w.queue))
	return nil
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.log.Error("malformed mail job", zap.Error(err))
		// Malformed jobs never become deliverable; drop without requeue.
		_ = d.Nack(false, false)
		return
	}

	if err := w.sender.Deliver(ctx, msg); err != nil {
		w.log.Error("mail delivery failed",
			zap.String("kind", msg.Kind),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
	w.log.Info("mail delivered",
		zap.String("kind", msg.Kind),
		zap.String("to", msg.To),
	)
}

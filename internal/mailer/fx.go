package mailer

import (
	"context"

	"github.com/modoocon/modoocon/internal/config"
	"github.com/modoocon/modoocon/internal/observability/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
	Metrics   *metrics.Metrics
}

// Provide wires the dispatcher. With an AMQP URL configured, jobs go through
// RabbitMQ and an in-process worker consumes them; otherwise delivery is
// direct via SMTP.
func Provide(p Params) (Dispatcher, error) {
	sender := NewSMTPSender(p.Config)

	if p.Config.AMQP.URL == "" {
		p.Log.Named("mailer").Info("no broker configured, delivering mail directly")
		return NewDirectDispatcher(sender, p.Log, p.Metrics), nil
	}

	conn, err := amqp.Dial(p.Config.AMQP.URL)
	if err != nil {
		return nil, err
	}

	dispatcher, err := NewAMQPDispatcher(conn, p.Config.AMQP.Queue, p.Log, p.Metrics)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	worker := NewWorker(conn, p.Config.AMQP.Queue, sender, p.Log)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return worker.Start()
		},
		OnStop: func(ctx context.Context) error {
			worker.Stop()
			return conn.Close()
		},
	})

	return dispatcher, nil
}

var Module = fx.Module("mailer",
	fx.Provide(Provide),
)

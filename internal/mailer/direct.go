package mailer

import (
	"context"

	"github.com/modoocon/modoocon/internal/observability/metrics"
	"go.uber.org/zap"
)

// DirectDispatcher delivers synchronously through the Sender. Used when no
// broker is configured (development, single-node deploys).
type DirectDispatcher struct {
	sender  Sender
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewDirectDispatcher(sender Sender, log *zap.Logger, m *metrics.Metrics) *DirectDispatcher {
	return &DirectDispatcher{
		sender:  sender,
		log:     log.Named("mailer.dispatcher"),
		metrics: m,
	}
}

func (d *DirectDispatcher) Send(ctx context.Context, msg Message) error {
	d.metrics.RecordMailQueued(ctx, msg.Kind)
	if err := d.sender.Deliver(ctx, msg); err != nil {
		d.log.Error("direct mail delivery failed",
			zap.String("kind", msg.Kind),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return err
	}
	return nil
}

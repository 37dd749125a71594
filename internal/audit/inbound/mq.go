package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/verimail/internal/pkg/config"
	"github.com/shandysiswandi/verimail/internal/pkg/goroutine"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/shandysiswandi/verimail/internal/pkg/messaging"
	"github.com/shandysiswandi/verimail/internal/pkg/uid"
	"github.com/shandysiswandi/verimail/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	broker messaging.Broker,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enabled := cfg.GetArray("modules.audit.consumer_names")

	consumers := []struct {
		// name doubles as the NSQ channel, NATS queue group, Kafka
		// group and Pub/Sub subscription.
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.AuditTrailConsumerAudit,
			topic:   event.AuditTrailDestination,
			handler: mqHandler.AuditTrail,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enabled, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "starting consumer", "consumer", consumer.name)
			return broker.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithChannel(consumer.name),
				messaging.WithQueueGroup(consumer.name),
				messaging.WithGroup(consumer.name),
				messaging.WithSubscription(consumer.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(10),
				messaging.WithMaxInFlight(10),
			)
		})
	}
}

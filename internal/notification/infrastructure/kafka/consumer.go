package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Facugl/microservices-ecommerce/internal/notification/application"
	orderdomain "github.com/Facugl/microservices-ecommerce/internal/order/domain"
	paymentdomain "github.com/Facugl/microservices-ecommerce/internal/payment/domain"
	"github.com/Facugl/microservices-ecommerce/pkg/idempotency"
	"github.com/Facugl/microservices-ecommerce/pkg/tracing"
)

// Kind selects which wire contract a consumer decodes.
type Kind string

const (
	KindOrderConfirmation   Kind = "order-confirmation"
	KindPaymentNotification Kind = "payment-notification"
)

type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    *application.Service
	idem   *idempotency.Store
	kind   Kind
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, kind Kind, svc *application.Service, idem *idempotency.Store) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		svc:    svc,
		idem:   idem,
		kind:   kind,
		tracer: otel.Tracer("notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumeNotificationEvent")

		if err := c.handle(msgCtx, msg.Value); err != nil {
			c.log.Error("notification handling failed", "topic", msg.Topic, "err", err)
			span.End()
			// Release the claim and leave the offset uncommitted so the
			// broker redelivers and the retry is not skipped as a duplicate.
			_ = c.idem.Forget(ctx, key)
			continue
		}
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, value []byte) error {
	switch c.kind {
	case KindPaymentNotification:
		var pn paymentdomain.PaymentNotification
		if err := json.Unmarshal(value, &pn); err != nil {
			return err
		}
		return c.svc.HandlePaymentNotification(ctx, pn)
	default:
		var oc orderdomain.OrderConfirmation
		if err := json.Unmarshal(value, &oc); err != nil {
			return err
		}
		return c.svc.HandleOrderConfirmation(ctx, oc)
	}
}
